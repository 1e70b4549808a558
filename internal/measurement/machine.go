// Package measurement runs the measurement tools: clicks are collected, a
// result is computed and the user then saves or discards it.
package measurement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/spatial"
)

// Phase of the measurement machine
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCollecting Phase = "collecting"
	PhaseConfirming Phase = "confirming"
)

// ErrInvalidState is returned when an action does not apply to the current phase
var ErrInvalidState = errors.New("invalid measurement state")

// Kinds returns the measurement tools in toolbar order
func Kinds() []models.Kind {
	return []models.Kind{
		models.KindDistance, models.KindBearingMeasure, models.KindArea,
		models.KindCenter, models.KindCentroid, models.KindBBox, models.KindAlong,
	}
}

// ParseKind accepts a full kind ("measurement-area") or its short tool name ("area")
func ParseKind(name string) (models.Kind, error) {
	if !strings.HasPrefix(name, "measurement-") {
		name = "measurement-" + name
	}
	kind, err := models.ParseKind(name)
	if err != nil {
		return "", err
	}
	if !kind.IsMeasurement() {
		return "", fmt.Errorf("%w: %q is not a measurement", models.ErrValidation, name)
	}
	return kind, nil
}

// Result is a completed measurement waiting to be saved or discarded
type Result struct {
	Kind    models.Kind  `json:"kind"`
	Shape   models.Shape `json:"shape"`
	Summary string       `json:"summary"`
	Title   string       `json:"title"`
}

// State is a snapshot of the machine
type State struct {
	Phase  Phase          `json:"phase"`
	Kind   models.Kind    `json:"kind,omitempty"`
	Points []models.Point `json:"points"`
	Result *Result        `json:"result,omitempty"`
}

// Preview is the live measurement under the cursor. It is never stored.
type Preview struct {
	Kind    models.Kind    `json:"kind"`
	Points  []models.Point `json:"points"`
	Closed  bool           `json:"closed"`
	Summary string         `json:"summary,omitempty"`
}

// Machine collects the clicks of the active measurement
type Machine struct {
	phase  Phase
	kind   models.Kind
	points []models.Point
	result *Result
}

// NewMachine returns an idle machine
func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

// State returns a copy of the current state
func (m *Machine) State() State {
	pts := make([]models.Point, len(m.points))
	copy(pts, m.points)
	st := State{Phase: m.phase, Kind: m.kind, Points: pts}
	if m.result != nil {
		r := *m.result
		r.Shape = r.Shape.Clone()
		st.Result = &r
	}
	return st
}

// Active reports whether a measurement is in progress
func (m *Machine) Active() bool {
	return m.phase != PhaseIdle
}

// Start begins a new measurement, cancelling the previous one
func (m *Machine) Start(kind models.Kind) error {
	if !kind.IsMeasurement() {
		return fmt.Errorf("%w: %q is not a measurement", models.ErrValidation, kind)
	}
	m.reset()
	m.phase = PhaseCollecting
	m.kind = kind
	return nil
}

// Click adds a point. Repeated clicks on the last point are ignored.
// Distance and bearing complete on their second point.
func (m *Machine) Click(p models.Point) (*Result, error) {
	if !p.IsFinite() {
		return nil, fmt.Errorf("%w: click position is not finite", models.ErrValidation)
	}
	if m.phase != PhaseCollecting {
		return nil, nil
	}
	m.add(p)

	if isPair(m.kind) && len(m.points) == 2 {
		return m.complete()
	}
	return nil, nil
}

// DoubleClick completes polygon measurements (3 points or more) and along
// (2 points or more). Below the minimum it is a no-op.
func (m *Machine) DoubleClick(p models.Point) (*Result, error) {
	if m.phase != PhaseCollecting || isPair(m.kind) {
		return nil, nil
	}
	if p.IsFinite() {
		m.add(p)
	}
	if !m.enoughPoints() {
		return nil, nil
	}
	return m.complete()
}

// MouseMove returns the live preview for the cursor position
func (m *Machine) MouseMove(p models.Point) (preview Preview, ok bool) {
	if m.phase != PhaseCollecting || len(m.points) == 0 || !p.IsFinite() {
		return Preview{}, false
	}

	pts := append(m.State().Points, p)
	preview = Preview{Kind: m.kind, Points: pts, Closed: m.kind.IsRing()}
	if shape, err := models.BuildShape(m.kind, models.Input{Points: pts}); err == nil {
		preview.Summary = Summarize(shape)
	}
	return preview, true
}

// Rename sets the title the result will be saved under
func (m *Machine) Rename(title string) error {
	if m.phase != PhaseConfirming {
		return fmt.Errorf("%w: no result to rename", ErrInvalidState)
	}
	m.result.Title = title
	return nil
}

// Save turns the pending result into an entity and returns to idle. An empty
// title keeps the current one.
func (m *Machine) Save(title string) (*models.Entity, error) {
	if m.phase != PhaseConfirming {
		return nil, fmt.Errorf("%w: no result to save", ErrInvalidState)
	}
	if title == "" {
		title = m.result.Title
	}
	e := models.WrapShape(m.result.Shape, title)
	m.reset()
	return e, nil
}

// Discard drops the pending result without a trace
func (m *Machine) Discard() error {
	if m.phase != PhaseConfirming {
		return fmt.Errorf("%w: no result to discard", ErrInvalidState)
	}
	m.reset()
	return nil
}

// Cancel abandons whatever is in progress
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) add(p models.Point) {
	if n := len(m.points); n > 0 && m.points[n-1].Equal(p) {
		return
	}
	m.points = append(m.points, p)
}

// complete computes the result. On error the machine keeps collecting.
func (m *Machine) complete() (*Result, error) {
	shape, err := models.BuildShape(m.kind, models.Input{Points: m.points})
	if err != nil {
		return nil, err
	}
	m.result = &Result{
		Kind:    m.kind,
		Shape:   shape,
		Summary: Summarize(shape),
		Title:   m.kind.DefaultTitle(),
	}
	m.phase = PhaseConfirming
	return m.State().Result, nil
}

func (m *Machine) enoughPoints() bool {
	if m.kind.IsRing() {
		return len(spatial.OpenRing(m.points)) >= 3
	}
	return len(m.points) >= 2
}

func (m *Machine) reset() {
	m.phase = PhaseIdle
	m.kind = ""
	m.points = nil
	m.result = nil
}

func isPair(kind models.Kind) bool {
	return kind == models.KindDistance || kind == models.KindBearingMeasure
}

