// Package drawing turns raw map events into finished drawing entities.
package drawing

import (
	"errors"
	"fmt"

	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/spatial"
)

// Phase of the drawing machine
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCollecting Phase = "collecting"
	// PhaseAwaiting waits for the circle radius or the bearing distance and angle
	PhaseAwaiting Phase = "awaiting"
)

// ErrInvalidState is returned when an action does not apply to the current phase
var ErrInvalidState = errors.New("invalid drawing state")

// Tools returns the drawing tools in toolbar order
func Tools() []models.Kind {
	return []models.Kind{models.KindMarker, models.KindCircle, models.KindLine, models.KindPolygon, models.KindBearing}
}

// IsTool reports whether kind is drawn with this machine
func IsTool(kind models.Kind) bool {
	for _, t := range Tools() {
		if t == kind {
			return true
		}
	}
	return false
}

// State is a snapshot of the machine
type State struct {
	Phase  Phase          `json:"phase"`
	Tool   models.Kind    `json:"tool,omitempty"`
	Points []models.Point `json:"points"`
}

// Params completes an awaiting circle or bearing
type Params struct {
	RadiusM    float64 `json:"radiusM"`
	DistanceM  float64 `json:"distanceM"`
	BearingDeg float64 `json:"bearingDeg"`
}

// Preview is the ephemeral shape drawn under the cursor. It is never stored.
type Preview struct {
	Tool   models.Kind    `json:"tool"`
	Points []models.Point `json:"points"`
	Closed bool           `json:"closed"`

	RadiusM    float64 `json:"radiusM,omitempty"`
	DistanceM  float64 `json:"distanceM,omitempty"`
	BearingDeg float64 `json:"bearingDeg,omitempty"`
}

// Machine accumulates clicks for the active drawing tool
type Machine struct {
	phase  Phase
	tool   models.Kind
	points []models.Point
}

// NewMachine returns an idle machine
func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

// State returns a copy of the current state
func (m *Machine) State() State {
	pts := make([]models.Point, len(m.points))
	copy(pts, m.points)
	return State{Phase: m.phase, Tool: m.tool, Points: pts}
}

// Active reports whether a tool is selected
func (m *Machine) Active() bool {
	return m.phase != PhaseIdle
}

// SelectTool discards any work in progress and starts collecting for tool
func (m *Machine) SelectTool(tool models.Kind) error {
	if !IsTool(tool) {
		return fmt.Errorf("%w: %q is not a drawing tool", models.ErrValidation, tool)
	}
	m.reset()
	m.phase = PhaseCollecting
	m.tool = tool
	return nil
}

// Click handles a single click. A marker is finished at once. Circle and
// bearing wait for their parameters after the first click; a second click
// completes them from the clicked position. Lines and polygons append.
func (m *Machine) Click(p models.Point) (*models.Entity, error) {
	if !p.IsFinite() {
		return nil, fmt.Errorf("%w: click position is not finite", models.ErrValidation)
	}

	switch m.phase {
	case PhaseIdle:
		return nil, nil
	case PhaseAwaiting:
		return m.completeFromCursor(p)
	}

	switch m.tool {
	case models.KindMarker:
		return m.finalize(models.Input{Points: []models.Point{p}})
	case models.KindCircle, models.KindBearing:
		m.points = []models.Point{p}
		m.phase = PhaseAwaiting
		return nil, nil
	default:
		m.points = append(m.points, p)
		return nil, nil
	}
}

// DoubleClick finishes a line or polygon. The platform delivers the click
// events of a double-click too, so repeated trailing points are collapsed
// before counting.
func (m *Machine) DoubleClick(p models.Point) (*models.Entity, error) {
	if m.phase != PhaseCollecting || !isMultiPoint(m.tool) {
		return nil, nil
	}
	if p.IsFinite() && (len(m.points) == 0 || !m.points[len(m.points)-1].Equal(p)) {
		m.points = append(m.points, p)
	}
	m.points = dedupeTail(m.points)
	return m.Finish()
}

// Finish finalizes a line or polygon. Below the minimum point count it is a
// no-op and collection stays open.
func (m *Machine) Finish() (*models.Entity, error) {
	if m.phase != PhaseCollecting || !isMultiPoint(m.tool) {
		return nil, nil
	}
	m.points = dedupeTail(m.points)
	if !m.enoughPoints() {
		return nil, nil
	}
	return m.finalize(models.Input{Points: m.points})
}

// Escape finishes a line or polygon that has enough points and silently
// discards anything else.
func (m *Machine) Escape() (*models.Entity, error) {
	if m.phase == PhaseCollecting && isMultiPoint(m.tool) {
		m.points = dedupeTail(m.points)
		if m.enoughPoints() {
			return m.finalize(models.Input{Points: m.points})
		}
	}
	m.reset()
	return nil, nil
}

// Cancel discards any work in progress
func (m *Machine) Cancel() {
	m.reset()
}

// Confirm completes an awaiting circle (radius) or bearing (distance and
// angle). Invalid parameters leave the machine awaiting.
func (m *Machine) Confirm(params Params) (*models.Entity, error) {
	if m.phase != PhaseAwaiting {
		return nil, fmt.Errorf("%w: nothing to confirm", ErrInvalidState)
	}

	in := models.Input{Points: []models.Point{m.points[0]}}
	switch m.tool {
	case models.KindCircle:
		in.RadiusM = params.RadiusM
	case models.KindBearing:
		in.DistanceM = params.DistanceM
		in.BearingDeg = params.BearingDeg
	}
	return m.finalize(in)
}

// MouseMove returns the preview for the cursor position. ok is false when
// nothing is being drawn.
func (m *Machine) MouseMove(p models.Point) (preview Preview, ok bool) {
	if m.phase == PhaseIdle || len(m.points) == 0 || !p.IsFinite() {
		return Preview{}, false
	}

	anchor := m.points[0]
	preview = Preview{Tool: m.tool}
	switch m.tool {
	case models.KindCircle:
		preview.Points = []models.Point{anchor}
		preview.RadiusM = spatial.Distance(anchor, p)
	case models.KindBearing:
		preview.Points = []models.Point{anchor, p}
		preview.DistanceM = spatial.Distance(anchor, p)
		preview.BearingDeg = spatial.Bearing(anchor, p)
	default:
		preview.Points = append(m.State().Points, p)
		preview.Closed = m.tool == models.KindPolygon
	}
	return preview, true
}

// completeFromCursor finishes an awaiting circle or bearing at the second click
func (m *Machine) completeFromCursor(p models.Point) (*models.Entity, error) {
	anchor := m.points[0]
	if anchor.Equal(p) {
		return nil, nil
	}
	if m.tool == models.KindCircle {
		return m.finalize(models.Input{Points: []models.Point{anchor}, RadiusM: spatial.Distance(anchor, p)})
	}
	return m.finalize(models.Input{Points: []models.Point{anchor, p}})
}

// finalize builds the entity and returns to idle. On error the state is kept.
func (m *Machine) finalize(in models.Input) (*models.Entity, error) {
	e, err := models.NewEntity(m.tool, in)
	if err != nil {
		return nil, err
	}
	m.reset()
	return e, nil
}

func (m *Machine) enoughPoints() bool {
	if m.tool == models.KindPolygon {
		return len(spatial.OpenRing(m.points)) >= 3
	}
	return len(m.points) >= 2
}

func (m *Machine) reset() {
	m.phase = PhaseIdle
	m.tool = ""
	m.points = nil
}

func isMultiPoint(tool models.Kind) bool {
	return tool == models.KindLine || tool == models.KindPolygon
}

// dedupeTail collapses identical trailing points into one
func dedupeTail(points []models.Point) []models.Point {
	for len(points) > 1 && points[len(points)-1].Equal(points[len(points)-2]) {
		points = points[:len(points)-1]
	}
	return points
}
