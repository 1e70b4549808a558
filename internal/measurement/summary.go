package measurement

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/jengzang/mapnotes-backend-go/internal/models"
)

// French number layout: narrow no-break space for thousands, comma for decimals
const numberFormat = "#\u202F###,##"

// Summarize renders the derived values of a measurement for display
func Summarize(shape models.Shape) string {
	switch s := shape.(type) {
	case *models.DistanceMeasure:
		return "Distance : " + formatDistance(s.DistanceM)
	case *models.BearingMeasure:
		return fmt.Sprintf("Azimut : %s° (%s), %s", number(s.BearingDeg), s.Cardinal, formatDistance(s.DistanceM))
	case *models.AreaMeasure:
		return fmt.Sprintf("Surface : %s, périmètre %s", formatArea(s.AreaM2), formatDistance(s.PerimeterM))
	case *models.CenterMeasure:
		return "Centre : " + formatPoint(s.Center)
	case *models.CentroidMeasure:
		return "Centroïde : " + formatPoint(s.Centroid)
	case *models.BBoxMeasure:
		return fmt.Sprintf("Emprise : %s × %s, %s", formatDistance(s.WidthM), formatDistance(s.HeightM), formatArea(s.AreaM2))
	case *models.AlongMeasure:
		return fmt.Sprintf("Point à %s %% (%s sur %s) : %s",
			number(s.AlongPercent), formatDistance(s.AlongDistanceM), formatDistance(s.LengthM), formatPoint(s.AlongPoint))
	}
	return string(shape.Kind())
}

func number(v float64) string {
	return humanize.FormatFloat(numberFormat, v)
}

func formatDistance(m float64) string {
	if m < 1000 {
		return number(m) + " m"
	}
	return number(m/1000) + " km"
}

func formatArea(m2 float64) string {
	switch {
	case m2 < 10000:
		return number(m2) + " m²"
	case m2 < 1e6:
		return number(m2/10000) + " ha"
	}
	return number(m2/1e6) + " km²"
}

func formatPoint(p models.Point) string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lng)
}
