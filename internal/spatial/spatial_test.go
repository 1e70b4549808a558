package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(origin Point, side float64) []Point {
	east := Destination(origin, side, 90)
	return []Point{
		origin,
		east,
		Destination(east, side, 0),
		Destination(origin, side, 0),
	}
}

func TestDistance_MeridianSegment(t *testing.T) {
	d := Distance(Point{Lat: 45.0, Lng: 5.0}, Point{Lat: 45.01, Lng: 5.0})
	// 0.01 degree of arc on the 6371 km sphere
	assert.InDelta(t, 1111.95, d, 1.0)
	assert.Equal(t, 0.0, Distance(Point{Lat: 45, Lng: 5}, Point{Lat: 45, Lng: 5}))
}

func TestDestination_East(t *testing.T) {
	start := Point{Lat: 45, Lng: 5}
	end := Destination(start, 1000, 90)

	assert.Greater(t, end.Lng, start.Lng)
	assert.InDelta(t, start.Lat, end.Lat, 1e-3)
	assert.InDelta(t, 90.0, Bearing(start, end), 0.01)
	assert.InDelta(t, 1000.0, Distance(start, end), 1e-6)
}

func TestBearing_InverseOfDestination(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		start := Point{Lat: rng.Float64()*160 - 80, Lng: rng.Float64()*360 - 180}
		dist := 10 + rng.Float64()*(2e7-10)
		bearing := rng.Float64() * 360

		end := Destination(start, dist, bearing)
		got := Bearing(start, end)

		require.LessOrEqualf(t, AngularDifference(got, bearing), 1e-6,
			"start=%v dist=%f bearing=%f got=%f", start, dist, bearing, got)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeBearing(360))
	assert.Equal(t, 270.0, NormalizeBearing(-90))
	assert.Equal(t, -170.0, NormalizeLongitude(190))
	assert.Equal(t, 170.0, NormalizeLongitude(-190))
	assert.Equal(t, 5.0, NormalizeLongitude(5))
}

func TestCardinal(t *testing.T) {
	cases := map[float64]string{
		0:     "N",
		22:    "N",
		23:    "NE",
		90:    "E",
		135:   "SE",
		180:   "S",
		225:   "SO",
		270:   "O",
		315:   "NO",
		350:   "N",
		-45.0: "NO",
	}
	for bearing, want := range cases {
		assert.Equalf(t, want, Cardinal(bearing), "bearing %v", bearing)
	}
}

func TestArea_SmallSquare(t *testing.T) {
	ring := square(Point{Lat: 45, Lng: 5}, 100)

	area := Area(ring)
	assert.InEpsilon(t, 10000.0, area, 0.02)

	reversed := []Point{ring[3], ring[2], ring[1], ring[0]}
	assert.InDelta(t, area, Area(reversed), 1e-6)
	assert.InDelta(t, area, Area(CloseRing(ring)), 1e-6)
}

func TestArea_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, Area([]Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}))
	assert.InDelta(t, 0.0, Area([]Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}}), 1e-3)
}

func TestPerimeter(t *testing.T) {
	ring := square(Point{Lat: 10, Lng: 10}, 250)
	assert.InDelta(t, 1000.0, Perimeter(ring), 0.5)
}

func TestBoundingBoxAndCenter(t *testing.T) {
	pts := []Point{{Lat: 1, Lng: 3}, {Lat: -2, Lng: 5}, {Lat: 4, Lng: -1}}

	b := BoundingBox(pts)
	assert.Equal(t, BBox{MinLat: -2, MinLng: -1, MaxLat: 4, MaxLng: 5}, b)
	assert.Equal(t, Point{Lat: 1, Lng: 2}, Center(pts))
	assert.Len(t, b.Ring(), 4)

	width, height := BoxDimensions(b)
	assert.Greater(t, width, 0.0)
	assert.InDelta(t, 6*math.Pi/180*EarthRadiusMeters, height, 1e-6)
	assert.InDelta(t, width*height, BoundingBoxArea(b), 1e-6)
}

func TestCentroid(t *testing.T) {
	ring := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}, {Lat: 2, Lng: 0}}
	c := Centroid(ring)
	assert.InDelta(t, 1.0, c.Lat, 1e-9)
	assert.InDelta(t, 1.0, c.Lng, 1e-9)

	// L-shaped ring: center of mass differs from the bbox center
	l := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 3}, {Lat: 1, Lng: 3}, {Lat: 1, Lng: 1}, {Lat: 3, Lng: 1}, {Lat: 3, Lng: 0}}
	lc := Centroid(l)
	assert.NotEqual(t, Center(l), lc)

	collinear := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}}
	assert.Equal(t, Point{Lat: 0, Lng: 1}, Centroid(collinear))
}

func TestPointAlong_Monotonic(t *testing.T) {
	line := []Point{{Lat: 45, Lng: 5}, {Lat: 45, Lng: 5.01}, {Lat: 45.005, Lng: 5.02}, {Lat: 45.005, Lng: 5.03}}
	total := Length(line)

	prev := PointAlong(line, 0)
	assert.Equal(t, line[0], prev)
	for d := total / 100; d < total; d += total / 100 {
		p := PointAlong(line, d)
		require.Greaterf(t, p.Lng, prev.Lng, "distance %f", d)
		prev = p
	}

	assert.Equal(t, line[len(line)-1], PointAlong(line, total))
	assert.Equal(t, line[len(line)-1], PointAlong(line, total*2))
	assert.Equal(t, line[0], PointAlong(line, -5))
}

func TestPointAlong_SkipsZeroLengthSegments(t *testing.T) {
	line := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	mid := PointAlong(line, Length(line)/2)
	assert.InDelta(t, 0.5, mid.Lng, 1e-9)
}

func TestRings(t *testing.T) {
	open := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0}}
	assert.Equal(t, []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}}, OpenRing(open))

	closed := CloseRing([]Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}})
	assert.Len(t, closed, 4)
	assert.Equal(t, closed[0], closed[3])
}

func TestPointFinite(t *testing.T) {
	assert.True(t, Point{Lat: 95, Lng: 400}.IsFinite())
	assert.False(t, Point{Lat: math.NaN(), Lng: 0}.IsFinite())
	assert.False(t, Point{Lat: 0, Lng: math.Inf(1)}.IsFinite())
}
