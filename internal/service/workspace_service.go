package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jengzang/mapnotes-backend-go/internal/codec"
	"github.com/jengzang/mapnotes-backend-go/internal/collection"
	"github.com/jengzang/mapnotes-backend-go/internal/drawing"
	"github.com/jengzang/mapnotes-backend-go/internal/measurement"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/pkg/metrics"
	"github.com/jengzang/mapnotes-backend-go/internal/repository"
	"github.com/jengzang/mapnotes-backend-go/internal/session"
)

// DocumentStore persists serialized documents by name
type DocumentStore interface {
	Save(ctx context.Context, doc *models.StoredDocument) error
	Load(ctx context.Context, name string) (*models.StoredDocument, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.DocumentSummary, int64, error)
	Delete(ctx context.Context, name string) error
}

// WorkspaceState is what the renderer needs to redraw the interaction layer
type WorkspaceState struct {
	Drawing     drawing.State      `json:"drawing"`
	Measurement measurement.State  `json:"measurement"`
	View        codec.ViewSettings `json:"view"`
	Entities    int                `json:"entities"`
}

// Preview is the live shape under the cursor for whichever machine is active
type Preview struct {
	Drawing     *drawing.Preview     `json:"drawing,omitempty"`
	Measurement *measurement.Preview `json:"measurement,omitempty"`
}

// WorkspaceService serializes every action on the open document and saves
// it to the autosave slot after each mutation.
type WorkspaceService struct {
	mu      sync.Mutex
	session *session.Session
	docs    DocumentStore
	slot    string
	logger  *slog.Logger
}

// NewWorkspaceService creates a workspace holding an empty document
func NewWorkspaceService(docs DocumentStore, autosaveSlot string, view codec.ViewSettings) *WorkspaceService {
	return &WorkspaceService{
		session: session.New(view),
		docs:    docs,
		slot:    autosaveSlot,
		logger:  slog.Default().With("component", "workspace"),
	}
}

// RestoreAutosave loads the autosave slot if one exists
func (s *WorkspaceService) RestoreAutosave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.docs.Load(ctx, s.slot)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		s.logger.Info("no autosave found, starting empty", "slot", s.slot)
		return nil
	}
	if err != nil {
		metrics.ObserveDocument("restore", err)
		return fmt.Errorf("failed to load autosave: %w", err)
	}

	_, err = s.session.Import(stored.Body)
	metrics.ObserveDocument("restore", err)
	if err != nil {
		return fmt.Errorf("failed to restore autosave: %w", err)
	}
	s.refreshGauge()
	s.logger.Info("autosave restored", "slot", s.slot, "entities", s.session.Store.Len())
	return nil
}

// State returns both machine states and the map view
func (s *WorkspaceService) State() WorkspaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *WorkspaceService) state() WorkspaceState {
	return WorkspaceState{
		Drawing:     s.session.Drawing.State(),
		Measurement: s.session.Measurement.State(),
		View:        s.session.View(),
		Entities:    s.session.Store.Len(),
	}
}

// SelectTool activates a drawing tool
func (s *WorkspaceService) SelectTool(tool models.Kind) (WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.SelectTool(tool); err != nil {
		return WorkspaceState{}, err
	}
	return s.state(), nil
}

// StartMeasurement activates a measurement
func (s *WorkspaceService) StartMeasurement(kind models.Kind) (WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.StartMeasurement(kind); err != nil {
		return WorkspaceState{}, err
	}
	return s.state(), nil
}

// HandleEvent forwards a click or double-click
func (s *WorkspaceService) HandleEvent(ctx context.Context, ev session.Event, p models.Point) (session.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.session.HandleEvent(ev, p)
	if err != nil {
		return session.Outcome{}, err
	}
	if out.Entity != nil {
		s.created(ctx, out.Entity)
	}
	return out, nil
}

// MouseMove returns the preview for the active machine, if any
func (s *WorkspaceService) MouseMove(p models.Point) (Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pv, ok := s.session.Measurement.MouseMove(p); ok {
		return Preview{Measurement: &pv}, true
	}
	if pv, ok := s.session.Drawing.MouseMove(p); ok {
		return Preview{Drawing: &pv}, true
	}
	return Preview{}, false
}

// Confirm completes an awaiting circle or bearing
func (s *WorkspaceService) Confirm(ctx context.Context, params drawing.Params) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.session.Confirm(params)
	if err != nil {
		return nil, err
	}
	s.created(ctx, e)
	return e, nil
}

// FinishDrawing finalizes a line or polygon. A nil entity means there were
// not enough points yet.
func (s *WorkspaceService) FinishDrawing(ctx context.Context) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.session.FinishDrawing()
	if err != nil || e == nil {
		return nil, err
	}
	s.created(ctx, e)
	return e, nil
}

// Escape finishes or discards the drawing and cancels any measurement
func (s *WorkspaceService) Escape(ctx context.Context) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.session.Escape()
	if err != nil || e == nil {
		return nil, err
	}
	s.created(ctx, e)
	return e, nil
}

// RenameMeasurement changes the title of the pending result
func (s *WorkspaceService) RenameMeasurement(title string) (WorkspaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Measurement.Rename(title); err != nil {
		return WorkspaceState{}, err
	}
	return s.state(), nil
}

// SaveMeasurement stores the pending result, optionally into a folder
func (s *WorkspaceService) SaveMeasurement(ctx context.Context, title string, folderID *string) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.session.SaveMeasurement(title, folderID)
	if err != nil {
		return nil, err
	}
	metrics.Measurements.WithLabelValues("saved").Inc()
	s.created(ctx, e)
	return e, nil
}

// DiscardMeasurement drops the pending result
func (s *WorkspaceService) DiscardMeasurement() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Measurement.Discard(); err != nil {
		return err
	}
	metrics.Measurements.WithLabelValues("discarded").Inc()
	return nil
}

// AddEntity creates an entity from typed-in coordinates
func (s *WorkspaceService) AddEntity(ctx context.Context, kind models.Kind, in models.Input) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.session.AddEntity(kind, in)
	if err != nil {
		return nil, err
	}
	e, err = s.session.Store.Get(e.ID)
	if err != nil {
		return nil, err
	}
	s.created(ctx, e)
	return e, nil
}

// GetEntity returns one entity and its visibility
func (s *WorkspaceService) GetEntity(id string) (*models.Entity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.session.Store.Get(id)
	if err != nil {
		return nil, false, err
	}
	return e, s.session.Store.IsVisible(id), nil
}

// Snapshot returns a copy of every entity, folder and visibility flag
func (s *WorkspaceService) Snapshot() collection.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Store.Snapshot()
}

// UpdateEntity edits fields or geometry of an entity
func (s *WorkspaceService) UpdateEntity(ctx context.Context, id string, patch collection.Patch) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.session.Store.Update(id, patch)
	if err != nil {
		return nil, err
	}
	s.autosave(ctx)
	return e, nil
}

// RemoveEntity deletes an entity. Unknown ids are ignored.
func (s *WorkspaceService) RemoveEntity(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.session.Store.Get(id); err != nil {
		return
	}
	s.session.Store.Remove(id)
	metrics.EntitiesRemoved.Inc()
	s.autosave(ctx)
}

// SetVisible shows or hides one entity
func (s *WorkspaceService) SetVisible(ctx context.Context, id string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Store.SetVisible(id, visible) {
		return fmt.Errorf("%w: entity %q", collection.ErrNotFound, id)
	}
	s.autosave(ctx)
	return nil
}

// ToggleAll shows or hides everything and returns the resulting visibility
func (s *WorkspaceService) ToggleAll(ctx context.Context, target *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.session.Store.ToggleAll(target)
	s.autosave(ctx)
	return visible
}

// CreateFolder adds an empty folder
func (s *WorkspaceService) CreateFolder(ctx context.Context, name string) *models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.session.Store.CreateFolder(name)
	s.autosave(ctx)
	return f
}

// Folders returns every folder in creation order
func (s *WorkspaceService) Folders() []*models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Store.Folders()
}

// FolderMembers returns the entities of a folder, or the unfiled ones for nil
func (s *WorkspaceService) FolderMembers(id *string) ([]*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != nil {
		if _, err := s.session.Store.Folder(*id); err != nil {
			return nil, err
		}
	}
	return s.session.Store.Members(id), nil
}

// FolderUpdate lists the folder fields to change
type FolderUpdate struct {
	Name      *string `json:"name"`
	Collapsed *bool   `json:"collapsed"`
	Visible   *bool   `json:"visible"`
}

// UpdateFolder renames, collapses or shows/hides a folder
func (s *WorkspaceService) UpdateFolder(ctx context.Context, id string, upd FolderUpdate) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.session.Store
	if _, err := store.Folder(id); err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if err := store.RenameFolder(id, *upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Collapsed != nil {
		if err := store.SetFolderCollapsed(id, *upd.Collapsed); err != nil {
			return nil, err
		}
	}
	if upd.Visible != nil {
		if err := store.SetFolderVisible(id, *upd.Visible); err != nil {
			return nil, err
		}
	}
	s.autosave(ctx)
	return store.Folder(id)
}

// DeleteFolder removes a folder; its members move to the root
func (s *WorkspaceService) DeleteFolder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Store.DeleteFolder(id); err != nil {
		return err
	}
	s.autosave(ctx)
	return nil
}

// MoveToFolder files an entity into a folder, or the root for nil
func (s *WorkspaceService) MoveToFolder(ctx context.Context, entityID string, folderID *string) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Store.MoveToFolder(entityID, folderID); err != nil {
		return nil, err
	}
	s.autosave(ctx)
	return s.session.Store.Get(entityID)
}

// View returns the current map view
func (s *WorkspaceService) View() codec.ViewSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.View()
}

// SetView stores the map view reported by the renderer
func (s *WorkspaceService) SetView(ctx context.Context, view codec.ViewSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.SetView(view); err != nil {
		return err
	}
	s.autosave(ctx)
	return nil
}

// Export renders the open document as GeoJSON
func (s *WorkspaceService) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.session.Export()
	metrics.ObserveDocument("export", err)
	if err != nil {
		return nil, fmt.Errorf("failed to export document: %w", err)
	}
	metrics.DocumentSize.Observe(float64(len(data)))
	return data, nil
}

// Import replaces the open document. On error nothing changes.
func (s *WorkspaceService) Import(ctx context.Context, data []byte) (*codec.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.session.Import(data)
	metrics.ObserveDocument("import", err)
	if err != nil {
		s.logger.Warn("import rejected", "error", err, "bytes", len(data))
		return nil, err
	}
	s.logger.Info("document imported", "features", len(doc.Features), "version", doc.Properties.Version)
	s.autosave(ctx)
	return doc, nil
}

// Reset empties the open document
func (s *WorkspaceService) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Reset()
	s.logger.Info("document cleared")
	s.autosave(ctx)
}

// SaveAs stores the open document under name
func (s *WorkspaceService) SaveAs(ctx context.Context, name string) (*models.DocumentSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is empty", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store(ctx, name)
	metrics.ObserveDocument("save", err)
	if err != nil {
		return nil, err
	}
	return &models.DocumentSummary{
		Name:         stored.Name,
		Version:      stored.Version,
		FeatureCount: stored.FeatureCount,
		SavedAt:      stored.SavedAt,
	}, nil
}

// Open replaces the open document with a stored one
func (s *WorkspaceService) Open(ctx context.Context, name string) (*codec.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.docs.Load(ctx, name)
	if err != nil {
		metrics.ObserveDocument("load", err)
		return nil, err
	}
	doc, err := s.session.Import(stored.Body)
	metrics.ObserveDocument("load", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document opened", "name", name, "features", len(doc.Features))
	s.autosave(ctx)
	return doc, nil
}

// ListDocuments pages through stored documents
func (s *WorkspaceService) ListDocuments(ctx context.Context, filter models.DocumentFilter) (*models.DocumentsResponse, error) {
	filter.Normalize()
	docs, total, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}
	return &models.DocumentsResponse{
		Data:       docs,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// DeleteDocument removes a stored document
func (s *WorkspaceService) DeleteDocument(ctx context.Context, name string) error {
	return s.docs.Delete(ctx, name)
}

// created records a new entity and autosaves
func (s *WorkspaceService) created(ctx context.Context, e *models.Entity) {
	metrics.EntitiesCreated.WithLabelValues(string(e.Kind())).Inc()
	s.logger.Debug("entity created", "id", e.ID, "kind", e.Kind(), "title", e.Title)
	s.autosave(ctx)
}

// autosave writes the open document to the autosave slot. Failures are
// logged and never undo the action that triggered them.
func (s *WorkspaceService) autosave(ctx context.Context) {
	s.refreshGauge()
	_, err := s.store(ctx, s.slot)
	metrics.ObserveDocument("autosave", err)
	if err != nil {
		s.logger.Error("autosave failed", "slot", s.slot, "error", err)
	}
}

func (s *WorkspaceService) store(ctx context.Context, name string) (*models.StoredDocument, error) {
	doc := s.session.Document()
	body, err := codec.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	stored := &models.StoredDocument{
		Name:         name,
		Body:         body,
		Version:      doc.Properties.Version,
		FeatureCount: len(doc.Features),
		SavedAt:      doc.Properties.SavedAt,
	}
	if stored.SavedAt == "" {
		stored.SavedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := s.docs.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to save document %q: %w", name, err)
	}
	metrics.DocumentSize.Observe(float64(len(body)))
	return stored, nil
}

func (s *WorkspaceService) refreshGauge() {
	metrics.Entities.Set(float64(s.session.Store.Len()))
}
