// Package session owns the state of one open document: the collection, the
// drawing and measurement machines and the map view.
package session

import (
	"fmt"
	"time"

	"github.com/jengzang/mapnotes-backend-go/internal/codec"
	"github.com/jengzang/mapnotes-backend-go/internal/collection"
	"github.com/jengzang/mapnotes-backend-go/internal/drawing"
	"github.com/jengzang/mapnotes-backend-go/internal/measurement"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
)

// Session is not safe for concurrent use; callers serialize access.
type Session struct {
	Store       *collection.Store
	Drawing     *drawing.Machine
	Measurement *measurement.Machine

	view codec.ViewSettings
	now  func() time.Time
}

// New returns an empty session with the given initial view
func New(view codec.ViewSettings) *Session {
	if view.Layers == nil {
		view.Layers = map[string]interface{}{}
	}
	return &Session{
		Store:       collection.NewStore(),
		Drawing:     drawing.NewMachine(),
		Measurement: measurement.NewMachine(),
		view:        view,
		now:         time.Now,
	}
}

// View returns the current map view
func (s *Session) View() codec.ViewSettings {
	v := s.view
	v.Layers = make(map[string]interface{}, len(s.view.Layers))
	for k, val := range s.view.Layers {
		v.Layers[k] = val
	}
	return v
}

// SetView replaces the map view
func (s *Session) SetView(view codec.ViewSettings) error {
	if !view.Center.IsFinite() {
		return fmt.Errorf("%w: view center is not finite", models.ErrValidation)
	}
	if view.Zoom < 0 || view.Zoom > 22 {
		return fmt.Errorf("%w: zoom %d out of range", models.ErrValidation, view.Zoom)
	}
	if view.Layers == nil {
		view.Layers = map[string]interface{}{}
	}
	s.view = view
	return nil
}

// SelectTool starts a drawing tool and cancels any measurement
func (s *Session) SelectTool(tool models.Kind) error {
	if err := s.Drawing.SelectTool(tool); err != nil {
		return err
	}
	s.Measurement.Cancel()
	return nil
}

// StartMeasurement starts a measurement and cancels any drawing
func (s *Session) StartMeasurement(kind models.Kind) error {
	if err := s.Measurement.Start(kind); err != nil {
		return err
	}
	s.Drawing.Cancel()
	return nil
}

// Event is a map event forwarded by the renderer
type Event string

const (
	EventClick       Event = "click"
	EventDoubleClick Event = "dblclick"
)

// Outcome reports what a map event produced
type Outcome struct {
	Entity *models.Entity      `json:"entity,omitempty"`
	Result *measurement.Result `json:"result,omitempty"`
}

// HandleEvent routes a click or double-click to the active machine. A
// finished drawing is inserted into the collection.
func (s *Session) HandleEvent(ev Event, p models.Point) (Outcome, error) {
	switch {
	case s.Measurement.Active():
		var (
			r   *measurement.Result
			err error
		)
		if ev == EventDoubleClick {
			r, err = s.Measurement.DoubleClick(p)
		} else {
			r, err = s.Measurement.Click(p)
		}
		return Outcome{Result: r}, err

	case s.Drawing.Active():
		var (
			e   *models.Entity
			err error
		)
		if ev == EventDoubleClick {
			e, err = s.Drawing.DoubleClick(p)
		} else {
			e, err = s.Drawing.Click(p)
		}
		if err != nil || e == nil {
			return Outcome{}, err
		}
		return Outcome{Entity: e}, s.Store.Insert(e)
	}
	return Outcome{}, nil
}

// Confirm completes an awaiting circle or bearing and stores it
func (s *Session) Confirm(params drawing.Params) (*models.Entity, error) {
	e, err := s.Drawing.Confirm(params)
	if err != nil {
		return nil, err
	}
	return e, s.Store.Insert(e)
}

// FinishDrawing finalizes the current line or polygon if it has enough points
func (s *Session) FinishDrawing() (*models.Entity, error) {
	e, err := s.Drawing.Finish()
	if err != nil || e == nil {
		return nil, err
	}
	return e, s.Store.Insert(e)
}

// Escape finishes a drawing that has enough points, discards anything else
// and cancels a measurement in progress.
func (s *Session) Escape() (*models.Entity, error) {
	s.Measurement.Cancel()
	e, err := s.Drawing.Escape()
	if err != nil || e == nil {
		return nil, err
	}
	return e, s.Store.Insert(e)
}

// SaveMeasurement stores the pending measurement result
func (s *Session) SaveMeasurement(title string, folderID *string) (*models.Entity, error) {
	if folderID != nil {
		if _, err := s.Store.Folder(*folderID); err != nil {
			return nil, err
		}
	}
	e, err := s.Measurement.Save(title)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Insert(e); err != nil {
		return nil, err
	}
	if folderID != nil {
		if err := s.Store.MoveToFolder(e.ID, folderID); err != nil {
			return nil, err
		}
		return s.Store.Get(e.ID)
	}
	return e, nil
}

// AddEntity creates an entity directly from coordinates (typed in or
// produced by an external collaborator) and stores it
func (s *Session) AddEntity(kind models.Kind, in models.Input) (*models.Entity, error) {
	e, err := models.NewEntity(kind, in)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Insert(e); err != nil {
		return nil, err
	}
	if e.FolderID != nil {
		// arriving in a hidden folder hides the entity
		if err := s.Store.MoveToFolder(e.ID, e.FolderID); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Document returns the current state as a persisted document
func (s *Session) Document() *codec.Document {
	return codec.Serialize(s.Store.Snapshot(), s.view, s.now())
}

// Export renders the current state as GeoJSON bytes
func (s *Session) Export() ([]byte, error) {
	return codec.Marshal(s.Document())
}

// Import replaces the whole collection, folders and view with the document
// in data. On any error nothing changes.
func (s *Session) Import(data []byte) (*codec.Document, error) {
	snap, view, doc, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.apply(snap, view); err != nil {
		return nil, err
	}
	return doc, nil
}

// Restore replaces the state with an already parsed document
func (s *Session) Restore(doc *codec.Document) error {
	snap, view, err := codec.Deserialize(doc)
	if err != nil {
		return err
	}
	return s.apply(snap, view)
}

// Reset drops every entity and folder and idles both machines
func (s *Session) Reset() {
	s.Drawing.Cancel()
	s.Measurement.Cancel()
	s.Store.Clear()
}

func (s *Session) apply(snap collection.Snapshot, view codec.ViewSettings) error {
	if err := s.Store.Replace(snap); err != nil {
		return &codec.ParseError{Msg: "invalid collection", Err: err}
	}
	s.Drawing.Cancel()
	s.Measurement.Cancel()
	if view.Layers == nil {
		view.Layers = map[string]interface{}{}
	}
	s.view = view
	return nil
}
