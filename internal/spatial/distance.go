package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// Distance calculates the great-circle distance between two points in meters
// using the Haversine formula
func Distance(a, b Point) float64 {
	return a.LatLng().Distance(b.LatLng()).Radians() * EarthRadiusMeters
}

// Bearing calculates the initial bearing (forward azimuth) from a to b.
// Returns bearing in degrees (0-360), where 0 is North, 90 is East, etc.
func Bearing(a, b Point) float64 {
	lat1Rad := degToRad(a.Lat)
	lat2Rad := degToRad(b.Lat)
	lonDiff := degToRad(b.Lng - a.Lng)

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)

	return NormalizeBearing(radToDeg(math.Atan2(y, x)))
}

// Destination calculates the point reached from start after travelling
// distance meters on the initial bearing (degrees).
func Destination(start Point, distance, bearing float64) Point {
	bearingRad := degToRad(bearing)
	angularDistance := distance / EarthRadiusMeters

	latRad := degToRad(start.Lat)
	lonRad := degToRad(start.Lng)

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDistance) +
		math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(bearingRad))

	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(lat2))

	return Point{Lat: radToDeg(lat2), Lng: NormalizeLongitude(radToDeg(lon2))}
}

// Midpoint calculates the great-circle midpoint between two points
func Midpoint(a, b Point) Point {
	return Interpolate(a, b, 0.5)
}

// Interpolate returns the point at fraction t of the great-circle arc from a to b.
func Interpolate(a, b Point, t float64) Point {
	p := s2.Interpolate(t, a.S2Point(), b.S2Point())
	return PointFromLatLng(s2.LatLngFromPoint(p))
}

// NormalizeBearing maps any angle in degrees onto [0, 360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// NormalizeLongitude maps a longitude in degrees onto [-180, 180).
func NormalizeLongitude(lng float64) float64 {
	if lng >= -180 && lng < 180 {
		return lng
	}
	l := math.Mod(lng+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}

// AngularDifference returns the smallest absolute difference between two
// bearings in degrees (0-180).
func AngularDifference(a, b float64) float64 {
	diff := math.Abs(NormalizeBearing(a) - NormalizeBearing(b))
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SO", "O", "NO"}

// Cardinal returns the 8-point compass label (French abbreviations) for a bearing.
func Cardinal(bearing float64) string {
	idx := int(math.Round(NormalizeBearing(bearing)/45)) % 8
	return cardinals[idx]
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
