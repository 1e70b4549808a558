package spatial

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// ErrDegenerate is returned when a geometry produces a non-finite measurement.
var ErrDegenerate = errors.New("degenerate geometry")

// Point is a WGS84 position in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PointFromLatLng converts an s2 LatLng to a Point
func PointFromLatLng(ll s2.LatLng) Point {
	return Point{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// LatLng converts the point to an s2 LatLng
func (p Point) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// S2Point converts the point to a unit vector on the sphere
func (p Point) S2Point() s2.Point {
	return s2.PointFromLatLng(p.LatLng())
}

// Orb converts the point to an orb point (lng, lat order)
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// IsFinite reports whether both coordinates are finite numbers.
// Out-of-range values are accepted.
func (p Point) IsFinite() bool {
	return isFinite(p.Lat) && isFinite(p.Lng)
}

// Equal reports whether two points share the same coordinates
func (p Point) Equal(o Point) bool {
	return p.Lat == o.Lat && p.Lng == o.Lng
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsFiniteValue reports whether v is neither NaN nor infinite.
func IsFiniteValue(v float64) bool {
	return isFinite(v)
}

// OpenRing drops the closing vertex of a ring (if present) and collapses
// consecutive duplicate vertices.
func OpenRing(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].Equal(p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0].Equal(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// CloseRing returns a copy of points whose last vertex equals the first
func CloseRing(points []Point) []Point {
	out := make([]Point, len(points), len(points)+1)
	copy(out, points)
	if len(out) > 0 && !out[0].Equal(out[len(out)-1]) {
		out = append(out, out[0])
	}
	return out
}
