// Package topology runs GEOS operations (buffer, dissolve) on WGS84 shapes.
package topology

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/project"
	"github.com/twpayne/go-geos"

	"github.com/jengzang/mapnotes-backend-go/internal/spatial"
)

// ErrEmpty is returned when an operation has nothing to work on
var ErrEmpty = errors.New("empty geometry")

// quadrant segments used to approximate round buffer ends
const quadSegs = 32

// Polygon is an outer ring followed by its holes, each ring open
type Polygon [][]spatial.Point

// Engine implements the operations on GEOS
type Engine struct{}

// NewEngine returns a GEOS-backed engine
func NewEngine() *Engine {
	return &Engine{}
}

// Buffer returns the area within radiusM meters of the shape. A single point
// buffers into a disc, several points into a corridor, and a closed shape
// into an enlarged polygon. Distances are applied in a Web Mercator frame
// scaled at the shape's mean latitude.
func (e *Engine) Buffer(points []spatial.Point, closed bool, radiusM float64) ([]Polygon, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	if !(radiusM > 0) || math.IsInf(radiusM, 0) {
		return nil, fmt.Errorf("buffer radius must be positive, got %v", radiusM)
	}

	var g orb.Geometry
	switch {
	case len(points) == 1:
		g = points[0].Orb()
	case closed && len(points) >= 3:
		g = orb.Polygon{toRing(points)}
	default:
		g = toLine(points)
	}

	// Mercator stretches distances by 1/cos(lat)
	lat := spatial.BoundingBox(points).Center().Lat
	scale := 1 / math.Cos(lat*math.Pi/180)

	projected := project.Geometry(orb.Clone(g), project.WGS84.ToMercator)
	buffered, err := run(projected, func(geom *geos.Geom) *geos.Geom {
		return geom.Buffer(radiusM*scale, quadSegs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to buffer shape: %w", err)
	}
	return toPolygons(project.Geometry(buffered, project.Mercator.ToWGS84))
}

// Dissolve merges overlapping polygons into their union
func (e *Engine) Dissolve(polygons [][]spatial.Point) ([]Polygon, error) {
	mp := make(orb.MultiPolygon, 0, len(polygons))
	for i, ring := range polygons {
		ring = spatial.OpenRing(ring)
		if len(ring) < 3 {
			return nil, fmt.Errorf("polygon %d needs at least 3 points", i)
		}
		mp = append(mp, orb.Polygon{toRing(ring)})
	}
	if len(mp) == 0 {
		return nil, ErrEmpty
	}

	dissolved, err := run(mp, func(geom *geos.Geom) *geos.Geom {
		// a zero-width buffer unions the parts and repairs self-intersections
		return geom.Buffer(0, quadSegs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dissolve polygons: %w", err)
	}
	return toPolygons(dissolved)
}

// run sends g through GEOS via WKT
func run(g orb.Geometry, op func(*geos.Geom) *geos.Geom) (orb.Geometry, error) {
	geom, err := geos.NewGeomFromWKT(wkt.MarshalString(g))
	if err != nil {
		return nil, err
	}
	out := op(geom)
	if out == nil || out.IsEmpty() {
		return nil, ErrEmpty
	}
	return wkt.Unmarshal(out.ToWKT())
}

func toRing(points []spatial.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, p.Orb())
	}
	return append(ring, points[0].Orb())
}

func toLine(points []spatial.Point) orb.LineString {
	line := make(orb.LineString, 0, len(points))
	for _, p := range points {
		line = append(line, p.Orb())
	}
	return line
}

func toPolygons(g orb.Geometry) ([]Polygon, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		return []Polygon{fromOrb(geom)}, nil
	case orb.MultiPolygon:
		out := make([]Polygon, 0, len(geom))
		for _, p := range geom {
			out = append(out, fromOrb(p))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected %s result", g.GeoJSONType())
}

func fromOrb(p orb.Polygon) Polygon {
	out := make(Polygon, 0, len(p))
	for _, ring := range p {
		pts := make([]spatial.Point, 0, len(ring))
		for _, c := range ring {
			pts = append(pts, spatial.Point{Lat: c.Lat(), Lng: c.Lon()})
		}
		out = append(out, spatial.OpenRing(pts))
	}
	return out
}
