package models

import (
	"fmt"
	"math"

	"github.com/jengzang/mapnotes-backend-go/internal/spatial"
)

// Marker is a single position
type Marker struct {
	Position Point `json:"position"`
}

// Circle is a center and a radius in meters
type Circle struct {
	Center  Point   `json:"center"`
	RadiusM float64 `json:"radius"`
}

// Line is a polyline of two or more points
type Line struct {
	Points    []Point `json:"points"`
	DistanceM float64 `json:"distanceM"` // sum of segment lengths
}

// Bearing is a directional segment from Start to End
type Bearing struct {
	Start      Point   `json:"start"`
	End        Point   `json:"end"`
	DistanceM  float64 `json:"distanceM"`
	BearingDeg float64 `json:"bearingDeg"`
}

// Polygon is an open ring of three or more points
type Polygon struct {
	Points []Point `json:"points"`
}

// DistanceMeasure is a measured distance between two clicks
type DistanceMeasure struct {
	Start      Point   `json:"start"`
	End        Point   `json:"end"`
	DistanceM  float64 `json:"distanceM"`
	DistanceKm float64 `json:"distanceKm"`
}

// BearingMeasure is a measured azimuth between two clicks
type BearingMeasure struct {
	Start      Point   `json:"start"`
	End        Point   `json:"end"`
	DistanceM  float64 `json:"distanceM"`
	DistanceKm float64 `json:"distanceKm"`
	BearingDeg float64 `json:"bearingDeg"`
	Cardinal   string  `json:"cardinal"`
}

// AreaMeasure is a measured polygon surface
type AreaMeasure struct {
	Points      []Point `json:"points"`
	AreaM2      float64 `json:"areaM2"`
	AreaHa      float64 `json:"areaHa"`
	AreaKm2     float64 `json:"areaKm2"`
	PerimeterM  float64 `json:"perimeterM"`
	PerimeterKm float64 `json:"perimeterKm"`
}

// CenterMeasure locates the center of the polygon's bounding box
type CenterMeasure struct {
	Points []Point `json:"points"`
	Center Point   `json:"center"`
	AreaM2 float64 `json:"areaM2"`
	AreaHa float64 `json:"areaHa"`
}

// CentroidMeasure locates the polygon's center of mass
type CentroidMeasure struct {
	Points   []Point `json:"points"`
	Centroid Point   `json:"centroid"`
	AreaM2   float64 `json:"areaM2"`
	AreaHa   float64 `json:"areaHa"`
}

// BBoxMeasure is the bounding box of a polygon with its dimensions
type BBoxMeasure struct {
	Points  []Point `json:"points"`
	BBox    BBox    `json:"bbox"`
	WidthM  float64 `json:"widthM"`
	HeightM float64 `json:"heightM"`
	AreaM2  float64 `json:"areaM2"` // width * height
	AreaHa  float64 `json:"areaHa"`
}

// AlongMeasure is a point interpolated along a polyline.
// AlongPercent is authoritative; AlongDistanceM and AlongPoint follow it.
type AlongMeasure struct {
	Points         []Point `json:"points"`
	LengthM        float64 `json:"lengthM"`
	LengthKm       float64 `json:"lengthKm"`
	AlongDistanceM float64 `json:"alongDistance"`
	AlongPercent   float64 `json:"alongPercent"`
	AlongPoint     Point   `json:"alongPoint"`
}

func (s *Marker) Kind() Kind          { return KindMarker }
func (s *Circle) Kind() Kind          { return KindCircle }
func (s *Line) Kind() Kind            { return KindLine }
func (s *Bearing) Kind() Kind         { return KindBearing }
func (s *Polygon) Kind() Kind         { return KindPolygon }
func (s *DistanceMeasure) Kind() Kind { return KindDistance }
func (s *BearingMeasure) Kind() Kind  { return KindBearingMeasure }
func (s *AreaMeasure) Kind() Kind     { return KindArea }
func (s *CenterMeasure) Kind() Kind   { return KindCenter }
func (s *CentroidMeasure) Kind() Kind { return KindCentroid }
func (s *BBoxMeasure) Kind() Kind     { return KindBBox }
func (s *AlongMeasure) Kind() Kind    { return KindAlong }

func (s *Marker) Vertices() []Point          { return []Point{s.Position} }
func (s *Circle) Vertices() []Point          { return []Point{s.Center} }
func (s *Line) Vertices() []Point            { return copyPoints(s.Points) }
func (s *Bearing) Vertices() []Point         { return []Point{s.Start, s.End} }
func (s *Polygon) Vertices() []Point         { return copyPoints(s.Points) }
func (s *DistanceMeasure) Vertices() []Point { return []Point{s.Start, s.End} }
func (s *BearingMeasure) Vertices() []Point  { return []Point{s.Start, s.End} }
func (s *AreaMeasure) Vertices() []Point     { return copyPoints(s.Points) }
func (s *CenterMeasure) Vertices() []Point   { return copyPoints(s.Points) }
func (s *CentroidMeasure) Vertices() []Point { return copyPoints(s.Points) }
func (s *BBoxMeasure) Vertices() []Point     { return copyPoints(s.Points) }
func (s *AlongMeasure) Vertices() []Point    { return copyPoints(s.Points) }

func (s *Marker) Clone() Shape          { c := *s; return &c }
func (s *Circle) Clone() Shape          { c := *s; return &c }
func (s *Line) Clone() Shape            { c := *s; c.Points = copyPoints(s.Points); return &c }
func (s *Bearing) Clone() Shape         { c := *s; return &c }
func (s *Polygon) Clone() Shape         { c := *s; c.Points = copyPoints(s.Points); return &c }
func (s *DistanceMeasure) Clone() Shape { c := *s; return &c }
func (s *BearingMeasure) Clone() Shape  { c := *s; return &c }
func (s *AreaMeasure) Clone() Shape     { c := *s; c.Points = copyPoints(s.Points); return &c }
func (s *CenterMeasure) Clone() Shape   { c := *s; c.Points = copyPoints(s.Points); return &c }
func (s *CentroidMeasure) Clone() Shape { c := *s; c.Points = copyPoints(s.Points); return &c }
func (s *BBoxMeasure) Clone() Shape     { c := *s; c.Points = copyPoints(s.Points); return &c }
func (s *AlongMeasure) Clone() Shape    { c := *s; c.Points = copyPoints(s.Points); return &c }

func (s *Marker) setVertices(pts []Point) error {
	if len(pts) != 1 {
		return validationf("marker needs exactly 1 point, got %d", len(pts))
	}
	s.Position = pts[0]
	return nil
}

func (s *Circle) setVertices(pts []Point) error {
	if len(pts) != 1 {
		return validationf("circle needs exactly 1 center point, got %d", len(pts))
	}
	s.Center = pts[0]
	return nil
}

func (s *Line) setVertices(pts []Point) error {
	if len(pts) < 2 {
		return validationf("line needs at least 2 points, got %d", len(pts))
	}
	s.Points = copyPoints(pts)
	return nil
}

func (s *Bearing) setVertices(pts []Point) error {
	start, end, err := pair(KindBearing, pts)
	if err != nil {
		return err
	}
	s.Start, s.End = start, end
	return nil
}

func (s *Polygon) setVertices(pts []Point) error {
	ring, err := openRing(KindPolygon, pts)
	if err != nil {
		return err
	}
	s.Points = ring
	return nil
}

func (s *DistanceMeasure) setVertices(pts []Point) error {
	start, end, err := pair(KindDistance, pts)
	if err != nil {
		return err
	}
	s.Start, s.End = start, end
	return nil
}

func (s *BearingMeasure) setVertices(pts []Point) error {
	start, end, err := pair(KindBearingMeasure, pts)
	if err != nil {
		return err
	}
	s.Start, s.End = start, end
	return nil
}

func (s *AreaMeasure) setVertices(pts []Point) error {
	ring, err := openRing(KindArea, pts)
	if err != nil {
		return err
	}
	s.Points = ring
	return nil
}

func (s *CenterMeasure) setVertices(pts []Point) error {
	ring, err := openRing(KindCenter, pts)
	if err != nil {
		return err
	}
	s.Points = ring
	return nil
}

func (s *CentroidMeasure) setVertices(pts []Point) error {
	ring, err := openRing(KindCentroid, pts)
	if err != nil {
		return err
	}
	s.Points = ring
	return nil
}

func (s *BBoxMeasure) setVertices(pts []Point) error {
	ring, err := openRing(KindBBox, pts)
	if err != nil {
		return err
	}
	s.Points = ring
	return nil
}

func (s *AlongMeasure) setVertices(pts []Point) error {
	if len(pts) < 2 {
		return validationf("%s needs at least 2 points, got %d", KindAlong, len(pts))
	}
	s.Points = copyPoints(pts)
	return nil
}

func (s *Marker) Recompute() error { return nil }

func (s *Circle) Recompute() error {
	if !(s.RadiusM > 0) || !isFinite(s.RadiusM) {
		return validationf("circle radius must be a positive number, got %v", s.RadiusM)
	}
	return nil
}

func (s *Line) Recompute() error {
	d, err := finite(KindLine, spatial.Length(s.Points))
	if err != nil {
		return err
	}
	s.DistanceM = d
	return nil
}

func (s *Bearing) Recompute() error {
	d, err := finite(KindBearing, spatial.Distance(s.Start, s.End))
	if err != nil {
		return err
	}
	b, err := finite(KindBearing, spatial.Bearing(s.Start, s.End))
	if err != nil {
		return err
	}
	s.DistanceM, s.BearingDeg = d, b
	return nil
}

func (s *Polygon) Recompute() error { return nil }

func (s *DistanceMeasure) Recompute() error {
	d, err := finite(KindDistance, spatial.Distance(s.Start, s.End))
	if err != nil {
		return err
	}
	s.DistanceM, s.DistanceKm = d, d/1000
	return nil
}

func (s *BearingMeasure) Recompute() error {
	d, err := finite(KindBearingMeasure, spatial.Distance(s.Start, s.End))
	if err != nil {
		return err
	}
	b, err := finite(KindBearingMeasure, spatial.Bearing(s.Start, s.End))
	if err != nil {
		return err
	}
	s.DistanceM, s.DistanceKm = d, d/1000
	s.BearingDeg, s.Cardinal = b, spatial.Cardinal(b)
	return nil
}

func (s *AreaMeasure) Recompute() error {
	area, err := finite(KindArea, spatial.Area(s.Points))
	if err != nil {
		return err
	}
	perimeter, err := finite(KindArea, spatial.Perimeter(s.Points))
	if err != nil {
		return err
	}
	s.AreaM2, s.AreaHa, s.AreaKm2 = area, area/10000, area/1e6
	s.PerimeterM, s.PerimeterKm = perimeter, perimeter/1000
	return nil
}

func (s *CenterMeasure) Recompute() error {
	area, err := finite(KindCenter, spatial.Area(s.Points))
	if err != nil {
		return err
	}
	center := spatial.Center(s.Points)
	if !center.IsFinite() {
		return degenerate(KindCenter)
	}
	s.Center, s.AreaM2, s.AreaHa = center, area, area/10000
	return nil
}

func (s *CentroidMeasure) Recompute() error {
	area, err := finite(KindCentroid, spatial.Area(s.Points))
	if err != nil {
		return err
	}
	centroid := spatial.Centroid(s.Points)
	if !centroid.IsFinite() {
		return degenerate(KindCentroid)
	}
	s.Centroid, s.AreaM2, s.AreaHa = centroid, area, area/10000
	return nil
}

func (s *BBoxMeasure) Recompute() error {
	bbox := spatial.BoundingBox(s.Points)
	width, height := spatial.BoxDimensions(bbox)
	area, err := finite(KindBBox, width*height)
	if err != nil {
		return err
	}
	s.BBox, s.WidthM, s.HeightM = bbox, width, height
	s.AreaM2, s.AreaHa = area, area/10000
	return nil
}

func (s *AlongMeasure) Recompute() error {
	length, err := finite(KindAlong, spatial.Length(s.Points))
	if err != nil {
		return err
	}
	along := s.AlongPercent / 100 * length
	point := spatial.PointAlong(s.Points, along)
	if s.AlongPercent >= 100 {
		point = s.Points[len(s.Points)-1]
	}
	if !point.IsFinite() {
		return degenerate(KindAlong)
	}
	s.LengthM, s.LengthKm = length, length/1000
	s.AlongDistanceM, s.AlongPoint = along, point
	return nil
}

// SetAlongPercent moves the along point to percent (0-100) of the line.
// Call Recompute afterwards to refresh the distance and the point.
func (s *AlongMeasure) SetAlongPercent(percent float64) error {
	if !isFinite(percent) || percent < 0 || percent > 100 {
		return validationf("along percent must be within [0, 100], got %v", percent)
	}
	s.AlongPercent = percent
	return nil
}

// SetAlongDistance moves the along point to distance meters from the start.
// Call Recompute afterwards to refresh the point.
func (s *AlongMeasure) SetAlongDistance(distance float64) error {
	if !isFinite(distance) || distance < 0 || distance > s.LengthM {
		return validationf("along distance must be within [0, %v], got %v", s.LengthM, distance)
	}
	if s.LengthM == 0 {
		s.AlongPercent = 0
		return nil
	}
	s.AlongPercent = math.Min(100, distance/s.LengthM*100)
	return nil
}

func pair(kind Kind, pts []Point) (Point, Point, error) {
	if len(pts) != 2 {
		return Point{}, Point{}, validationf("%s needs exactly 2 points, got %d", kind, len(pts))
	}
	return pts[0], pts[1], nil
}

// openRing drops repeated closing vertices and enforces the 3-point minimum
func openRing(kind Kind, pts []Point) ([]Point, error) {
	ring := copyPoints(pts)
	for len(ring) > 1 && ring[0].Equal(ring[len(ring)-1]) {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, validationf("%s needs at least 3 points, got %d", kind, len(ring))
	}
	return ring, nil
}

func finite(kind Kind, v float64) (float64, error) {
	if !isFinite(v) {
		return 0, degenerate(kind)
	}
	return v, nil
}

func degenerate(kind Kind) error {
	return fmt.Errorf("%w: %s produced a non-finite value", spatial.ErrDegenerate, kind)
}

func isFinite(v float64) bool {
	return spatial.IsFiniteValue(v)
}

func destination(start Point, distance, bearing float64) Point {
	return spatial.Destination(start, distance, bearing)
}
