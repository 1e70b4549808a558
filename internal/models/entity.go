package models

import (
	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"
)

// Shape is the per-kind geometric payload of an Entity together with its
// derived fields. The set of implementations is closed: every kind provides
// its own validation, recomputation and GeoJSON mapping.
type Shape interface {
	Kind() Kind

	// Vertices returns a copy of the primary geometry points
	Vertices() []Point

	// Recompute refreshes every derived field from the geometry. On error the
	// previous derived values are kept.
	Recompute() error

	// Clone returns a deep copy
	Clone() Shape

	setVertices(points []Point) error
	encode() (*geojson.Geometry, map[string]interface{})
	decode(f *geojson.Feature) error
}

// Entity is a user-created drawing or measurement result
type Entity struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	FolderID    *string `json:"folderId"`
	Shape       Shape   `json:"shape"`
}

// Kind returns the discriminant of the entity's shape
func (e *Entity) Kind() Kind {
	return e.Shape.Kind()
}

// Clone returns a deep copy of the entity
func (e *Entity) Clone() *Entity {
	c := *e
	if e.FolderID != nil {
		id := *e.FolderID
		c.FolderID = &id
	}
	if e.Shape != nil {
		c.Shape = e.Shape.Clone()
	}
	return &c
}

// Input is the raw tool input used to create an Entity
type Input struct {
	ID          string
	Title       string
	Description string
	Color       string
	FolderID    *string
	Points      []Point

	// Circle radius in meters
	RadiusM float64

	// Bearing parameters used when only a start point is given
	DistanceM  float64
	BearingDeg float64

	// Along-line position in percent of the line length (default 50)
	AlongPercent *float64
}

// NewID returns a new time-ordered identifier
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewEntity validates the input, computes every derived field and applies
// the per-kind defaults.
func NewEntity(kind Kind, in Input) (*Entity, error) {
	shape, err := BuildShape(kind, in)
	if err != nil {
		return nil, err
	}

	e := &Entity{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Color:       in.Color,
		Shape:       shape,
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Title == "" {
		e.Title = kind.DefaultTitle()
	}
	if e.Color == "" {
		e.Color = kind.DefaultColor()
	}
	if in.FolderID != nil {
		id := *in.FolderID
		e.FolderID = &id
	}
	return e, nil
}

// WrapShape turns an already computed payload into an entity with the
// per-kind defaults. The shape is cloned.
func WrapShape(shape Shape, title string) *Entity {
	kind := shape.Kind()
	if title == "" {
		title = kind.DefaultTitle()
	}
	return &Entity{
		ID:    NewID(),
		Title: title,
		Color: kind.DefaultColor(),
		Shape: shape.Clone(),
	}
}

// BuildShape creates the payload of the given kind from raw input
func BuildShape(kind Kind, in Input) (Shape, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	for i, p := range in.Points {
		if !p.IsFinite() {
			return nil, validationf("point %d is not finite", i)
		}
	}

	shape, err := newShape(kind, in)
	if err != nil {
		return nil, err
	}
	if err := shape.Recompute(); err != nil {
		return nil, err
	}
	return shape, nil
}

// Reshape returns a copy of shape with its geometry replaced by points and
// all derived fields recomputed. The original shape is never modified.
func Reshape(shape Shape, points []Point) (Shape, error) {
	for i, p := range points {
		if !p.IsFinite() {
			return nil, validationf("point %d is not finite", i)
		}
	}

	next := shape.Clone()
	if err := next.setVertices(points); err != nil {
		return nil, err
	}
	if err := next.Recompute(); err != nil {
		return nil, err
	}
	return next, nil
}

func newShape(kind Kind, in Input) (Shape, error) {
	pts := copyPoints(in.Points)

	switch kind {
	case KindMarker:
		s := &Marker{}
		return s, s.setVertices(pts)
	case KindCircle:
		s := &Circle{RadiusM: in.RadiusM}
		return s, s.setVertices(pts)
	case KindLine:
		s := &Line{}
		return s, s.setVertices(pts)
	case KindBearing:
		pts, err := segmentInput(kind, in)
		if err != nil {
			return nil, err
		}
		s := &Bearing{}
		return s, s.setVertices(pts)
	case KindPolygon:
		s := &Polygon{}
		return s, s.setVertices(pts)
	case KindDistance:
		s := &DistanceMeasure{}
		return s, s.setVertices(pts)
	case KindBearingMeasure:
		s := &BearingMeasure{}
		return s, s.setVertices(pts)
	case KindArea:
		s := &AreaMeasure{}
		return s, s.setVertices(pts)
	case KindCenter:
		s := &CenterMeasure{}
		return s, s.setVertices(pts)
	case KindCentroid:
		s := &CentroidMeasure{}
		return s, s.setVertices(pts)
	case KindBBox:
		s := &BBoxMeasure{}
		return s, s.setVertices(pts)
	case KindAlong:
		s := &AlongMeasure{AlongPercent: 50}
		if in.AlongPercent != nil {
			if err := s.SetAlongPercent(*in.AlongPercent); err != nil {
				return nil, err
			}
		}
		return s, s.setVertices(pts)
	}
	return nil, validationf("unknown entity kind %q", kind)
}

// emptyShape returns the zero payload used when decoding a feature
func emptyShape(kind Kind) (Shape, error) {
	switch kind {
	case KindMarker:
		return &Marker{}, nil
	case KindCircle:
		return &Circle{}, nil
	case KindLine:
		return &Line{}, nil
	case KindBearing:
		return &Bearing{}, nil
	case KindPolygon:
		return &Polygon{}, nil
	case KindDistance:
		return &DistanceMeasure{}, nil
	case KindBearingMeasure:
		return &BearingMeasure{}, nil
	case KindArea:
		return &AreaMeasure{}, nil
	case KindCenter:
		return &CenterMeasure{}, nil
	case KindCentroid:
		return &CentroidMeasure{}, nil
	case KindBBox:
		return &BBoxMeasure{}, nil
	case KindAlong:
		return &AlongMeasure{}, nil
	}
	return nil, validationf("unknown entity kind %q", kind)
}

// segmentInput resolves a start/end pair either from two points or from a
// start point plus distance and bearing parameters.
func segmentInput(kind Kind, in Input) ([]Point, error) {
	switch len(in.Points) {
	case 2:
		return copyPoints(in.Points), nil
	case 1:
		if !(in.DistanceM > 0) || !isFinite(in.DistanceM) || !isFinite(in.BearingDeg) {
			return nil, validationf("%s needs a positive distance and a bearing", kind)
		}
		end := destination(in.Points[0], in.DistanceM, in.BearingDeg)
		return []Point{in.Points[0], end}, nil
	}
	return nil, validationf("%s needs 2 points, got %d", kind, len(in.Points))
}

func copyPoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
