package models

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mapnotes-backend-go/internal/spatial"
)

func TestNewEntityMinimumPoints(t *testing.T) {
	p1 := Point{Lat: 45, Lng: 5}
	p2 := Point{Lat: 45.001, Lng: 5}
	p3 := Point{Lat: 45.001, Lng: 5.001}

	_, err := NewEntity(KindPolygon, Input{Points: []Point{p1, p2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	e, err := NewEntity(KindPolygon, Input{Points: []Point{p1, p2, p3}})
	require.NoError(t, err)
	assert.Equal(t, KindPolygon, e.Kind())
	assert.Len(t, e.Shape.Vertices(), 3)

	cases := []struct {
		kind Kind
		min  int
	}{
		{KindMarker, 1},
		{KindCircle, 1},
		{KindLine, 2},
		{KindDistance, 2},
		{KindBearingMeasure, 2},
		{KindArea, 3},
		{KindCenter, 3},
		{KindCentroid, 3},
		{KindBBox, 3},
		{KindAlong, 2},
	}
	all := []Point{p1, p2, p3}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			in := Input{Points: all[:tc.min-1], RadiusM: 100}
			_, err := NewEntity(tc.kind, in)
			assert.True(t, errors.Is(err, ErrValidation), "expected validation error below minimum")

			in.Points = all[:tc.min]
			_, err = NewEntity(tc.kind, in)
			assert.NoError(t, err)
		})
	}
}

func TestNewEntityClosedRingCountsOnce(t *testing.T) {
	p1 := Point{Lat: 45, Lng: 5}
	p2 := Point{Lat: 45.001, Lng: 5}

	_, err := NewEntity(KindArea, Input{Points: []Point{p1, p2, p1}})
	assert.True(t, errors.Is(err, ErrValidation))

	p3 := Point{Lat: 45.001, Lng: 5.001}
	e, err := NewEntity(KindArea, Input{Points: []Point{p1, p2, p3, p1}})
	require.NoError(t, err)
	assert.Len(t, e.Shape.Vertices(), 3)
}

func TestNewEntityDefaults(t *testing.T) {
	e, err := NewEntity(KindMarker, Input{Points: []Point{{Lat: 1, Lng: 2}}})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Marqueur", e.Title)
	assert.Equal(t, KindMarker.DefaultColor(), e.Color)
	assert.Nil(t, e.FolderID)

	folder := "f1"
	e, err = NewEntity(KindMarker, Input{
		ID:       "m1",
		Title:    "Sommet",
		Color:    "#000000",
		FolderID: &folder,
		Points:   []Point{{Lat: 1, Lng: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", e.ID)
	assert.Equal(t, "Sommet", e.Title)
	assert.Equal(t, "#000000", e.Color)
	folder = "changed"
	assert.Equal(t, "f1", *e.FolderID)
}

func TestNewEntityRejectsBadInput(t *testing.T) {
	_, err := NewEntity(Kind("triangle"), Input{})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewEntity(KindMarker, Input{Points: []Point{{Lat: math.NaN(), Lng: 0}}})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewEntity(KindCircle, Input{Points: []Point{{Lat: 1, Lng: 1}}})
	assert.True(t, errors.Is(err, ErrValidation), "circle without radius")

	_, err = NewEntity(KindBearing, Input{Points: []Point{{Lat: 1, Lng: 1}}})
	assert.True(t, errors.Is(err, ErrValidation), "bearing without distance")

	pct := 120.0
	_, err = NewEntity(KindAlong, Input{
		Points:       []Point{{Lat: 1, Lng: 1}, {Lat: 1.1, Lng: 1}},
		AlongPercent: &pct,
	})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestLineScenario(t *testing.T) {
	e, err := NewEntity(KindLine, Input{Points: []Point{{Lat: 45.0, Lng: 5.0}, {Lat: 45.01, Lng: 5.0}}})
	require.NoError(t, err)

	line := e.Shape.(*Line)
	// 0.01 degree of meridian on the 6371 km sphere
	assert.InDelta(t, 1111.95, line.DistanceM, 1)
}

func TestBearingScenario(t *testing.T) {
	start := Point{Lat: 45, Lng: 5}
	e, err := NewEntity(KindBearing, Input{Points: []Point{start}, DistanceM: 1000, BearingDeg: 90})
	require.NoError(t, err)

	b := e.Shape.(*Bearing)
	assert.Greater(t, b.End.Lng, start.Lng)
	assert.InDelta(t, start.Lat, b.End.Lat, 1e-3)
	assert.InDelta(t, 90, b.BearingDeg, 0.01)
	assert.InDelta(t, 1000, b.DistanceM, 1e-3)
	assert.InDelta(t, 90, spatial.Bearing(start, b.End), 0.01)
}

func TestAreaScenario(t *testing.T) {
	origin := Point{Lat: 45, Lng: 5}
	east := spatial.Destination(origin, 100, 90)
	north := spatial.Destination(origin, 100, 0)
	ring := []Point{origin, east, {Lat: north.Lat, Lng: east.Lng}, north}

	e, err := NewEntity(KindArea, Input{Points: ring})
	require.NoError(t, err)

	area := e.Shape.(*AreaMeasure)
	assert.InEpsilon(t, 10000, area.AreaM2, 0.02)
	assert.InEpsilon(t, 1.0, area.AreaHa, 0.02)
	assert.InEpsilon(t, 0.01, area.AreaKm2, 0.02)
	assert.InEpsilon(t, 400, area.PerimeterM, 0.02)
}

func TestBearingMeasureCardinal(t *testing.T) {
	start := Point{Lat: 10, Lng: 10}
	end := spatial.Destination(start, 5000, 225)

	e, err := NewEntity(KindBearingMeasure, Input{Points: []Point{start, end}})
	require.NoError(t, err)

	b := e.Shape.(*BearingMeasure)
	assert.InDelta(t, 225, b.BearingDeg, 1e-6)
	assert.Equal(t, "SO", b.Cardinal)
	assert.InDelta(t, 5, b.DistanceKm, 1e-6)
}

func TestBBoxMeasure(t *testing.T) {
	ring := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.01}, {Lat: 0.02, Lng: 0.005}}
	e, err := NewEntity(KindBBox, Input{Points: ring})
	require.NoError(t, err)

	b := e.Shape.(*BBoxMeasure)
	assert.Equal(t, BBox{MinLat: 0, MinLng: 0, MaxLat: 0.02, MaxLng: 0.01}, b.BBox)
	assert.InDelta(t, b.WidthM*b.HeightM, b.AreaM2, 1e-6)
	assert.InDelta(t, b.AreaM2/10000, b.AreaHa, 1e-9)
}

func TestAlongInvariant(t *testing.T) {
	line := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.01}, {Lat: 0.01, Lng: 0.01}}

	e, err := NewEntity(KindAlong, Input{Points: line})
	require.NoError(t, err)
	along := e.Shape.(*AlongMeasure)
	assert.Equal(t, 50.0, along.AlongPercent)
	assert.InDelta(t, along.AlongPercent*along.LengthM/100, along.AlongDistanceM, 1e-6)
	// the midpoint of two equal legs is the corner vertex
	assert.InDelta(t, 0.0, along.AlongPoint.Lat, 1e-6)
	assert.InDelta(t, 0.01, along.AlongPoint.Lng, 1e-6)

	require.NoError(t, along.SetAlongPercent(100))
	require.NoError(t, along.Recompute())
	assert.Equal(t, line[2], along.AlongPoint)

	require.NoError(t, along.SetAlongDistance(along.LengthM/4))
	require.NoError(t, along.Recompute())
	assert.InDelta(t, 25, along.AlongPercent, 1e-9)
	assert.InDelta(t, along.AlongPercent*along.LengthM/100, along.AlongDistanceM, 1e-6)

	assert.Error(t, along.SetAlongDistance(along.LengthM*2))
	assert.Error(t, along.SetAlongPercent(-1))
}

func TestAlongMonotonic(t *testing.T) {
	line := []Point{{Lat: 10, Lng: 10}, {Lat: 10.05, Lng: 10.02}, {Lat: 10.02, Lng: 10.09}}
	e, err := NewEntity(KindAlong, Input{Points: line})
	require.NoError(t, err)
	along := e.Shape.(*AlongMeasure)

	prev := -1.0
	for pct := 0.0; pct <= 100; pct += 2.5 {
		require.NoError(t, along.SetAlongPercent(pct))
		require.NoError(t, along.Recompute())

		// distance travelled from the start along the line to the along point
		travelled := progress(line, along.AlongPoint)
		assert.Greater(t, travelled, prev, "along point moved backwards at %v%%", pct)
		prev = travelled
	}
	assert.Equal(t, line[len(line)-1], along.AlongPoint)
}

// progress returns the along-line distance of p, found as the nearest vertex
// leg followed by the offset inside it.
func progress(line []Point, p Point) float64 {
	best, bestGap := 0.0, math.Inf(1)
	walked := 0.0
	for i := 0; i+1 < len(line); i++ {
		a, b := line[i], line[i+1]
		leg := spatial.Distance(a, b)
		da, db := spatial.Distance(a, p), spatial.Distance(p, b)
		if gap := da + db - leg; gap < bestGap {
			best, bestGap = walked+da, gap
		}
		walked += leg
	}
	return best
}

func TestReshapeKeepsOriginal(t *testing.T) {
	e, err := NewEntity(KindLine, Input{Points: []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}})
	require.NoError(t, err)
	before := e.Shape.(*Line).DistanceM

	next, err := Reshape(e.Shape, []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}})
	require.NoError(t, err)
	assert.InDelta(t, 2*before, next.(*Line).DistanceM, 1e-6)
	assert.Equal(t, before, e.Shape.(*Line).DistanceM)

	_, err = Reshape(e.Shape, []Point{{Lat: 0, Lng: 0}})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestEntityClone(t *testing.T) {
	folder := "f"
	e, err := NewEntity(KindPolygon, Input{
		FolderID: &folder,
		Points:   []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}},
	})
	require.NoError(t, err)

	c := e.Clone()
	assert.Equal(t, e, c)
	*c.FolderID = "g"
	c.Shape.(*Polygon).Points[0].Lat = 9
	assert.Equal(t, "f", *e.FolderID)
	assert.Equal(t, 0.0, e.Shape.(*Polygon).Points[0].Lat)
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint(" 45.5, 5.25 ")
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 45.5, Lng: 5.25}, p)

	p, err = ParsePoint("-12.5\t130")
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: -12.5, Lng: 130}, p)

	for _, bad := range []string{"", "45", "a, b", "1, 2, 3", "NaN, 1", "1, Inf", "45;5"} {
		_, err := ParsePoint(bad)
		assert.True(t, errors.Is(err, ErrValidation), "input %q", bad)
	}
}

func TestParsePoints(t *testing.T) {
	pts, err := ParsePoints("45, 5\n\n45.1, 5.1\n45.2 5.2\n")
	require.NoError(t, err)
	assert.Len(t, pts, 3)

	pts, err = ParsePoints("45,5; 46,6")
	require.NoError(t, err)
	assert.Equal(t, []Point{{Lat: 45, Lng: 5}, {Lat: 46, Lng: 6}}, pts)

	pts, err = ParsePoints("45 5;46 6\n47, 7;")
	require.NoError(t, err)
	assert.Len(t, pts, 3)

	_, err = ParsePoints("45, 5\nnope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ParsePoints("  \n")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestKinds(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.NotEmpty(t, k.DefaultTitle())
		assert.NotEmpty(t, k.DefaultColor())

		shape, err := emptyShape(k)
		require.NoError(t, err)
		assert.Equal(t, k, shape.Kind())
	}
	assert.True(t, KindAlong.IsMeasurement())
	assert.False(t, KindBearing.IsMeasurement())

	for _, k := range []Kind{KindPolygon, KindArea, KindCenter, KindCentroid, KindBBox} {
		assert.True(t, k.IsRing(), k)
	}
	for _, k := range []Kind{KindMarker, KindCircle, KindLine, KindBearing, KindDistance, KindBearingMeasure, KindAlong} {
		assert.False(t, k.IsRing(), k)
	}
}

// randomInput builds valid input for kind around a random base point
func randomInput(r *rand.Rand, kind Kind) Input {
	base := Point{Lat: r.Float64()*120 - 60, Lng: r.Float64()*340 - 170}
	near := func() Point {
		return Point{Lat: base.Lat + r.Float64()*0.05, Lng: base.Lng + r.Float64()*0.05}
	}
	ring := func() []Point {
		n := 3 + r.Intn(6)
		pts := make([]Point, n)
		for i := range pts {
			angle := 2 * math.Pi * float64(i) / float64(n)
			radius := 0.005 + r.Float64()*0.02
			pts[i] = Point{Lat: base.Lat + radius*math.Sin(angle), Lng: base.Lng + radius*math.Cos(angle)}
		}
		return pts
	}

	in := Input{Title: "t", Description: "d"}
	if r.Intn(2) == 0 {
		folder := NewID()
		in.FolderID = &folder
	}

	switch kind {
	case KindMarker:
		in.Points = []Point{near()}
	case KindCircle:
		in.Points = []Point{near()}
		in.RadiusM = 1 + r.Float64()*5000
	case KindLine, KindAlong:
		n := 2 + r.Intn(5)
		for i := 0; i < n; i++ {
			in.Points = append(in.Points, near())
		}
		pct := r.Float64() * 100
		in.AlongPercent = &pct
	case KindBearing:
		in.Points = []Point{near()}
		in.DistanceM = 1 + r.Float64()*1e6
		in.BearingDeg = r.Float64() * 360
	case KindDistance, KindBearingMeasure:
		in.Points = []Point{near(), near()}
	default:
		in.Points = ring()
	}
	return in
}
