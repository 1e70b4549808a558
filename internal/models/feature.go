package models

import (
	"encoding/json"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
)

// Feature property keys shared by every kind
const (
	PropType        = "type"
	PropTitle       = "title"
	PropDescription = "description"
	PropColor       = "color"
	PropFolderID    = "folderId"
)

// ToFeature encodes the entity as a GeoJSON feature. Derived fields are
// copied into the properties; computed landmarks are projected into a
// secondary geometry of a GeometryCollection.
func ToFeature(e *Entity) *geojson.Feature {
	geometry, derived := e.Shape.encode()

	f := geojson.NewFeature(geometry)
	f.ID = e.ID
	f.SetProperty(PropType, string(e.Kind()))
	f.SetProperty(PropTitle, e.Title)
	f.SetProperty(PropDescription, e.Description)
	f.SetProperty(PropColor, e.Color)
	if e.FolderID != nil {
		f.SetProperty(PropFolderID, *e.FolderID)
	}
	for k, v := range derived {
		f.SetProperty(k, v)
	}
	return f
}

// FromFeature decodes a feature produced by ToFeature (or an older save).
// Derived fields are read back from the properties; they are recomputed only
// when a save predates them.
func FromFeature(f *geojson.Feature) (*Entity, error) {
	if f == nil {
		return nil, validationf("missing feature")
	}

	kindName, ok := stringProp(f.Properties, PropType)
	if !ok {
		return nil, validationf("feature has no %q property", PropType)
	}
	kind, err := ParseKind(kindName)
	if err != nil {
		return nil, err
	}

	shape, err := emptyShape(kind)
	if err != nil {
		return nil, err
	}
	if err := shape.decode(f); err != nil {
		return nil, err
	}

	e := &Entity{
		ID:          featureID(f),
		Title:       stringPropOr(f.Properties, PropTitle, kind.DefaultTitle()),
		Description: stringPropOr(f.Properties, PropDescription, ""),
		Color:       stringPropOr(f.Properties, PropColor, kind.DefaultColor()),
		Shape:       shape,
	}
	if folder, ok := stringProp(f.Properties, PropFolderID); ok && folder != "" {
		e.FolderID = &folder
	}
	return e, nil
}

func featureID(f *geojson.Feature) string {
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	}
	if id, ok := stringProp(f.Properties, "id"); ok && id != "" {
		return id
	}
	return NewID()
}

// ---- encode ----

func (s *Marker) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewPointGeometry(coord(s.Position)), nil
}

// GeoJSON has no circle primitive: the center is a Point and the radius a property
func (s *Circle) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewPointGeometry(coord(s.Center)), map[string]interface{}{
		"radius": s.RadiusM,
	}
}

func (s *Line) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewLineStringGeometry(coords(s.Points)), map[string]interface{}{
		"distanceM": s.DistanceM,
	}
}

func (s *Bearing) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewLineStringGeometry(coords([]Point{s.Start, s.End})), map[string]interface{}{
		"distanceM":  s.DistanceM,
		"bearingDeg": s.BearingDeg,
	}
}

func (s *Polygon) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewPolygonGeometry(ring(s.Points)), nil
}

func (s *DistanceMeasure) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewLineStringGeometry(coords([]Point{s.Start, s.End})), map[string]interface{}{
		"distanceM":  s.DistanceM,
		"distanceKm": s.DistanceKm,
	}
}

func (s *BearingMeasure) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewLineStringGeometry(coords([]Point{s.Start, s.End})), map[string]interface{}{
		"distanceM":  s.DistanceM,
		"distanceKm": s.DistanceKm,
		"bearingDeg": s.BearingDeg,
		"cardinal":   s.Cardinal,
	}
}

func (s *AreaMeasure) encode() (*geojson.Geometry, map[string]interface{}) {
	return geojson.NewPolygonGeometry(ring(s.Points)), map[string]interface{}{
		"areaM2":      s.AreaM2,
		"areaHa":      s.AreaHa,
		"areaKm2":     s.AreaKm2,
		"perimeterM":  s.PerimeterM,
		"perimeterKm": s.PerimeterKm,
	}
}

func (s *CenterMeasure) encode() (*geojson.Geometry, map[string]interface{}) {
	g := geojson.NewCollectionGeometry(
		geojson.NewPolygonGeometry(ring(s.Points)),
		geojson.NewPointGeometry(coord(s.Center)),
	)
	return g, map[string]interface{}{
		"areaM2": s.AreaM2,
		"areaHa": s.AreaHa,
	}
}

func (s *CentroidMeasure) encode() (*geojson.Geometry, map[string]interface{}) {
	g := geojson.NewCollectionGeometry(
		geojson.NewPolygonGeometry(ring(s.Points)),
		geojson.NewPointGeometry(coord(s.Centroid)),
	)
	return g, map[string]interface{}{
		"areaM2": s.AreaM2,
		"areaHa": s.AreaHa,
	}
}

func (s *BBoxMeasure) encode() (*geojson.Geometry, map[string]interface{}) {
	g := geojson.NewCollectionGeometry(
		geojson.NewPolygonGeometry(ring(s.Points)),
		geojson.NewPolygonGeometry(ring(s.BBox.Ring())),
	)
	return g, map[string]interface{}{
		"bbox": map[string]interface{}{
			"minLat": s.BBox.MinLat,
			"minLng": s.BBox.MinLng,
			"maxLat": s.BBox.MaxLat,
			"maxLng": s.BBox.MaxLng,
		},
		"widthM":  s.WidthM,
		"heightM": s.HeightM,
		"areaM2":  s.AreaM2,
		"areaHa":  s.AreaHa,
	}
}

func (s *AlongMeasure) encode() (*geojson.Geometry, map[string]interface{}) {
	g := geojson.NewCollectionGeometry(
		geojson.NewLineStringGeometry(coords(s.Points)),
		geojson.NewPointGeometry(coord(s.AlongPoint)),
	)
	return g, map[string]interface{}{
		"lengthM":       s.LengthM,
		"lengthKm":      s.LengthKm,
		"alongDistance": s.AlongDistanceM,
		"alongPercent":  s.AlongPercent,
	}
}

// ---- decode ----

func (s *Marker) decode(f *geojson.Feature) error {
	p, err := pointFrom(f.Geometry)
	if err != nil {
		return err
	}
	return s.setVertices([]Point{p})
}

func (s *Circle) decode(f *geojson.Feature) error {
	p, err := pointFrom(f.Geometry)
	if err != nil {
		return err
	}
	radius, ok := floatProp(f.Properties, "radius")
	if !ok {
		return validationf("circle feature has no radius")
	}
	s.RadiusM = radius
	if err := s.setVertices([]Point{p}); err != nil {
		return err
	}
	return s.Recompute()
}

func (s *Line) decode(f *geojson.Feature) error {
	pts, err := lineFrom(f.Geometry)
	if err != nil {
		// older saves kept a two-point line as start/end properties
		start, okStart := pointProp(f.Properties, "start")
		end, okEnd := pointProp(f.Properties, "end")
		if !okStart || !okEnd {
			return err
		}
		pts = []Point{start, end}
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}

	if d, ok := floatProp(f.Properties, "distanceM"); ok {
		s.DistanceM = d
		return nil
	}
	if d, ok := floatProp(f.Properties, "distance"); ok {
		s.DistanceM = d
		return nil
	}
	return s.Recompute()
}

func (s *Bearing) decode(f *geojson.Feature) error {
	pts, err := lineFrom(f.Geometry)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}
	if restore(f, map[string]*float64{"distanceM": &s.DistanceM, "bearingDeg": &s.BearingDeg}) {
		return nil
	}
	return s.Recompute()
}

func (s *Polygon) decode(f *geojson.Feature) error {
	pts, err := ringFrom(f.Geometry)
	if err != nil {
		return err
	}
	return s.setVertices(pts)
}

func (s *DistanceMeasure) decode(f *geojson.Feature) error {
	pts, err := lineFrom(f.Geometry)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}
	if restore(f, map[string]*float64{"distanceM": &s.DistanceM, "distanceKm": &s.DistanceKm}) {
		return nil
	}
	return s.Recompute()
}

func (s *BearingMeasure) decode(f *geojson.Feature) error {
	pts, err := lineFrom(f.Geometry)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}
	cardinal, ok := stringProp(f.Properties, "cardinal")
	if ok && restore(f, map[string]*float64{
		"distanceM":  &s.DistanceM,
		"distanceKm": &s.DistanceKm,
		"bearingDeg": &s.BearingDeg,
	}) {
		s.Cardinal = cardinal
		return nil
	}
	return s.Recompute()
}

func (s *AreaMeasure) decode(f *geojson.Feature) error {
	pts, err := ringFrom(f.Geometry)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}
	if restore(f, map[string]*float64{
		"areaM2":      &s.AreaM2,
		"areaHa":      &s.AreaHa,
		"areaKm2":     &s.AreaKm2,
		"perimeterM":  &s.PerimeterM,
		"perimeterKm": &s.PerimeterKm,
	}) {
		return nil
	}
	return s.Recompute()
}

func (s *CenterMeasure) decode(f *geojson.Feature) error {
	primary, landmark := splitCollection(f.Geometry)
	pts, err := ringFrom(primary)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}
	center, err := pointFrom(landmark)
	if err == nil && restore(f, map[string]*float64{"areaM2": &s.AreaM2, "areaHa": &s.AreaHa}) {
		s.Center = center
		return nil
	}
	return s.Recompute()
}

func (s *CentroidMeasure) decode(f *geojson.Feature) error {
	primary, landmark := splitCollection(f.Geometry)
	pts, err := ringFrom(primary)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}
	centroid, err := pointFrom(landmark)
	if err == nil && restore(f, map[string]*float64{"areaM2": &s.AreaM2, "areaHa": &s.AreaHa}) {
		s.Centroid = centroid
		return nil
	}
	return s.Recompute()
}

func (s *BBoxMeasure) decode(f *geojson.Feature) error {
	primary, _ := splitCollection(f.Geometry)
	pts, err := ringFrom(primary)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}

	raw, _ := f.Properties["bbox"].(map[string]interface{})
	var bbox BBox
	if raw != nil && restoreMap(raw, map[string]*float64{
		"minLat": &bbox.MinLat,
		"minLng": &bbox.MinLng,
		"maxLat": &bbox.MaxLat,
		"maxLng": &bbox.MaxLng,
	}) && restore(f, map[string]*float64{
		"widthM":  &s.WidthM,
		"heightM": &s.HeightM,
		"areaM2":  &s.AreaM2,
		"areaHa":  &s.AreaHa,
	}) {
		s.BBox = bbox
		return nil
	}
	return s.Recompute()
}

func (s *AlongMeasure) decode(f *geojson.Feature) error {
	primary, landmark := splitCollection(f.Geometry)
	pts, err := lineFrom(primary)
	if err != nil {
		return err
	}
	if err := s.setVertices(pts); err != nil {
		return err
	}

	s.AlongPercent = 50
	if percent, ok := floatProp(f.Properties, "alongPercent"); ok {
		if err := s.SetAlongPercent(percent); err != nil {
			return err
		}
	}
	point, err := pointFrom(landmark)
	if err == nil && restore(f, map[string]*float64{
		"lengthM":       &s.LengthM,
		"lengthKm":      &s.LengthKm,
		"alongDistance": &s.AlongDistanceM,
	}) {
		s.AlongPoint = point
		return nil
	}
	return s.Recompute()
}

// ---- helpers ----

func coord(p Point) []float64 {
	return []float64{p.Lng, p.Lat}
}

func coords(points []Point) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		out = append(out, coord(p))
	}
	return out
}

// ring closes the points into a GeoJSON linear ring (last == first)
func ring(points []Point) [][][]float64 {
	closed := coords(points)
	if len(points) > 0 {
		closed = append(closed, coord(points[0]))
	}
	return [][][]float64{closed}
}

func toPoint(c []float64) (Point, error) {
	if len(c) < 2 {
		return Point{}, validationf("coordinate needs 2 values, got %d", len(c))
	}
	p := Point{Lat: c[1], Lng: c[0]}
	if !p.IsFinite() {
		return Point{}, validationf("coordinate is not finite")
	}
	return p, nil
}

func pointFrom(g *geojson.Geometry) (Point, error) {
	if g == nil || g.Type != geojson.GeometryPoint {
		return Point{}, validationf("expected a Point geometry")
	}
	return toPoint(g.Point)
}

func lineFrom(g *geojson.Geometry) ([]Point, error) {
	if g == nil || g.Type != geojson.GeometryLineString {
		return nil, validationf("expected a LineString geometry")
	}
	return toPoints(g.LineString)
}

// ringFrom returns the outer ring without its closing vertex
func ringFrom(g *geojson.Geometry) ([]Point, error) {
	if g == nil || g.Type != geojson.GeometryPolygon || len(g.Polygon) == 0 {
		return nil, validationf("expected a Polygon geometry")
	}
	pts, err := toPoints(g.Polygon[0])
	if err != nil {
		return nil, err
	}
	if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	return pts, nil
}

func toPoints(cs [][]float64) ([]Point, error) {
	pts := make([]Point, 0, len(cs))
	for _, c := range cs {
		p, err := toPoint(c)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// splitCollection separates a primary shape from its landmark geometry.
// Plain geometries (older saves) have no landmark.
func splitCollection(g *geojson.Geometry) (primary, landmark *geojson.Geometry) {
	if g == nil || g.Type != geojson.GeometryCollection {
		return g, nil
	}
	if len(g.Geometries) > 0 {
		primary = g.Geometries[0]
	}
	if len(g.Geometries) > 1 {
		landmark = g.Geometries[1]
	}
	return primary, landmark
}

func restore(f *geojson.Feature, fields map[string]*float64) bool {
	return restoreMap(f.Properties, fields)
}

// restoreMap copies every listed numeric property, reporting false if any is missing
func restoreMap(props map[string]interface{}, fields map[string]*float64) bool {
	for key, dst := range fields {
		v, ok := floatProp(props, key)
		if !ok {
			return false
		}
		*dst = v
	}
	return true
}

func floatProp(props map[string]interface{}, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, isFinite(v)
	case float32:
		return float64(v), isFinite(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func stringProp(props map[string]interface{}, key string) (string, bool) {
	v, ok := props[key].(string)
	return v, ok
}

func stringPropOr(props map[string]interface{}, key, def string) string {
	if v, ok := stringProp(props, key); ok {
		return v
	}
	return def
}

func pointProp(props map[string]interface{}, key string) (Point, bool) {
	raw, ok := props[key].(map[string]interface{})
	if !ok {
		return Point{}, false
	}
	var p Point
	if !restoreMap(raw, map[string]*float64{"lat": &p.Lat, "lng": &p.Lng}) {
		return Point{}, false
	}
	return p, true
}
