package models

import (
	"strconv"
	"strings"

	"github.com/jengzang/mapnotes-backend-go/internal/spatial"
)

// Point is a WGS84 position in degrees
type Point = spatial.Point

// BBox is a bounding box in degrees
type BBox = spatial.BBox

// ParsePoint parses user text of the form "lat, lng" (comma or whitespace
// separated)
func ParsePoint(text string) (Point, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(text), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return Point{}, validationf("expected \"lat, lng\", got %q", text)
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, validationf("invalid latitude %q", fields[0])
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, validationf("invalid longitude %q", fields[1])
	}

	p := Point{Lat: lat, Lng: lng}
	if !p.IsFinite() {
		return Point{}, validationf("non-finite coordinate in %q", text)
	}
	return p, nil
}

// ParsePoints parses "lat, lng" pairs given one per line or separated by
// semicolons. Blank entries are skipped.
func ParsePoints(text string) ([]Point, error) {
	var points []Point
	for i, line := range strings.Split(text, "\n") {
		for _, pair := range strings.Split(line, ";") {
			if strings.TrimSpace(pair) == "" {
				continue
			}
			p, err := ParsePoint(pair)
			if err != nil {
				return nil, validationf("line %d: %s", i+1, err.(*ValidationError).Msg)
			}
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return nil, validationf("no coordinates given")
	}
	return points, nil
}
