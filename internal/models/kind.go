package models

// Kind identifies the geometric and semantic type of an Entity
type Kind string

const (
	KindMarker   Kind = "marker"
	KindCircle   Kind = "circle"
	KindLine     Kind = "line"
	KindBearing  Kind = "bearing"
	KindPolygon  Kind = "polygon"
	KindDistance Kind = "measurement-distance"
	// KindBearingMeasure is the measured azimuth between two clicks
	KindBearingMeasure Kind = "measurement-bearing"
	KindArea           Kind = "measurement-area"
	KindCenter         Kind = "measurement-center"
	KindCentroid       Kind = "measurement-centroid"
	KindBBox           Kind = "measurement-bbox"
	KindAlong          Kind = "measurement-along"
)

type kindInfo struct {
	title string
	color string
}

var kinds = map[Kind]kindInfo{
	KindMarker:         {title: "Marqueur", color: "#e74c3c"},
	KindCircle:         {title: "Cercle", color: "#3498db"},
	KindLine:           {title: "Ligne", color: "#2ecc71"},
	KindBearing:        {title: "Direction", color: "#9b59b6"},
	KindPolygon:        {title: "Polygone", color: "#f39c12"},
	KindDistance:       {title: "Distance", color: "#e67e22"},
	KindBearingMeasure: {title: "Azimut", color: "#8e44ad"},
	KindArea:           {title: "Surface", color: "#16a085"},
	KindCenter:         {title: "Centre", color: "#c0392b"},
	KindCentroid:       {title: "Centroïde", color: "#d35400"},
	KindBBox:           {title: "Emprise", color: "#7f8c8d"},
	KindAlong:          {title: "Point sur ligne", color: "#27ae60"},
}

// Kinds returns every known kind in declaration order
func Kinds() []Kind {
	return []Kind{
		KindMarker, KindCircle, KindLine, KindBearing, KindPolygon,
		KindDistance, KindBearingMeasure, KindArea, KindCenter, KindCentroid, KindBBox, KindAlong,
	}
}

// ParseKind validates a wire kind string
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kinds[k]; !ok {
		return "", validationf("unknown entity kind %q", s)
	}
	return k, nil
}

// DefaultTitle returns the title given to new entities of this kind
func (k Kind) DefaultTitle() string {
	return kinds[k].title
}

// DefaultColor returns the CSS color given to new entities of this kind
func (k Kind) DefaultColor() string {
	return kinds[k].color
}

// IsMeasurement reports whether the kind is produced by the measurement tools
func (k Kind) IsMeasurement() bool {
	switch k {
	case KindDistance, KindBearingMeasure, KindArea, KindCenter, KindCentroid, KindBBox, KindAlong:
		return true
	}
	return false
}

// IsRing reports whether the kind's vertices form a closed ring
func (k Kind) IsRing() bool {
	switch k {
	case KindPolygon, KindArea, KindCenter, KindCentroid, KindBBox:
		return true
	}
	return false
}
