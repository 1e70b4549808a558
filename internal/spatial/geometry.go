package spatial

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// BBox is an axis-aligned bounding box in degrees
type BBox struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// Center returns the geometric center of the box
func (b BBox) Center() Point {
	return Point{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// Ring returns the box as an open ring, counter-clockwise from the south-west corner
func (b BBox) Ring() []Point {
	return []Point{
		{Lat: b.MinLat, Lng: b.MinLng},
		{Lat: b.MinLat, Lng: b.MaxLng},
		{Lat: b.MaxLat, Lng: b.MaxLng},
		{Lat: b.MaxLat, Lng: b.MinLng},
	}
}

// Length calculates the total length of a path (sequence of points) in meters
func Length(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// Perimeter calculates the length of the closed ring in meters
func Perimeter(ring []Point) float64 {
	open := OpenRing(ring)
	if len(open) < 2 {
		return 0
	}
	return Length(CloseRing(open))
}

// Area calculates the area of a polygon ring in square meters using the
// spherical excess of a triangle fan. Orientation does not matter.
func Area(ring []Point) float64 {
	open := OpenRing(ring)
	if len(open) < 3 {
		return 0
	}

	origin := open[0].S2Point()
	var sum float64
	for i := 1; i+1 < len(open); i++ {
		sum += s2.SignedArea(origin, open[i].S2Point(), open[i+1].S2Point())
	}
	return math.Abs(sum) * EarthRadiusMeters * EarthRadiusMeters
}

// BoundingBox calculates the bounding box of a set of points
func BoundingBox(points []Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}

	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, p.Orb())
	}
	bound := mp.Bound()

	return BBox{
		MinLat: bound.Min.Lat(),
		MinLng: bound.Min.Lon(),
		MaxLat: bound.Max.Lat(),
		MaxLng: bound.Max.Lon(),
	}
}

// Center returns the center of the bounding box of points
func Center(points []Point) Point {
	return BoundingBox(points).Center()
}

// BoxDimensions returns the width (along the southern edge) and the height
// (along the western edge) of a bounding box in meters
func BoxDimensions(b BBox) (width, height float64) {
	width = Distance(Point{Lat: b.MinLat, Lng: b.MinLng}, Point{Lat: b.MinLat, Lng: b.MaxLng})
	height = Distance(Point{Lat: b.MinLat, Lng: b.MinLng}, Point{Lat: b.MaxLat, Lng: b.MinLng})
	return width, height
}

// BoundingBoxArea calculates the area of a bounding box in square meters
func BoundingBoxArea(b BBox) float64 {
	width, height := BoxDimensions(b)
	return width * height
}

// Centroid calculates the planar center of mass of a polygon ring.
// Rings without area fall back to the mean of their vertices.
func Centroid(ring []Point) Point {
	open := OpenRing(ring)
	if len(open) == 0 {
		return Point{}
	}

	r := make(orb.Ring, 0, len(open)+1)
	for _, p := range CloseRing(open) {
		r = append(r, p.Orb())
	}

	c, area := planar.CentroidArea(orb.Polygon{r})
	if area != 0 && isFinite(c.Lat()) && isFinite(c.Lon()) {
		return Point{Lat: c.Lat(), Lng: c.Lon()}
	}
	return vertexMean(open)
}

func vertexMean(points []Point) Point {
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return Point{Lat: sumLat / n, Lng: sumLng / n}
}

// PointAlong returns the point located distance meters along the line.
// Distances outside [0, length] clamp to the first or last vertex.
func PointAlong(line []Point, distance float64) Point {
	if len(line) == 0 {
		return Point{}
	}
	if distance <= 0 || len(line) == 1 {
		return line[0]
	}
	if distance >= Length(line) {
		return line[len(line)-1]
	}

	var travelled float64
	for i := 1; i < len(line); i++ {
		seg := Distance(line[i-1], line[i])
		if seg > 0 && travelled+seg >= distance {
			return Interpolate(line[i-1], line[i], (distance-travelled)/seg)
		}
		travelled += seg
	}
	return line[len(line)-1]
}
