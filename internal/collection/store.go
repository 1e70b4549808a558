// Package collection holds the in-memory entities and folders of a document.
package collection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/mapnotes-backend-go/internal/models"
)

var (
	// ErrNotFound is returned for unknown entity or folder ids
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when inserting an id that is already stored
	ErrDuplicate = errors.New("duplicate id")
)

// Patch lists the fields to change on an entity. Nil fields are left alone.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`

	// Points replaces the geometry; every derived field is recomputed
	Points []models.Point `json:"points,omitempty"`

	RadiusM        *float64 `json:"radiusM,omitempty"`
	AlongPercent   *float64 `json:"alongPercent,omitempty"`
	AlongDistanceM *float64 `json:"alongDistanceM,omitempty"`
}

// Snapshot is a detached copy of the whole store
type Snapshot struct {
	Entities []*models.Entity
	Visible  map[string]bool
	Folders  []*models.Folder
}

// Store owns entities (in insertion order), their visibility and folders
type Store struct {
	order    []string
	entities map[string]*models.Entity
	visible  map[string]bool
	folders  []*models.Folder
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{
		entities: make(map[string]*models.Entity),
		visible:  make(map[string]bool),
	}
}

// Insert appends a copy of e, visible
func (s *Store) Insert(e *models.Entity) error {
	if e == nil || e.Shape == nil {
		return fmt.Errorf("%w: entity has no shape", models.ErrValidation)
	}
	if _, ok := s.entities[e.ID]; ok || e.ID == "" {
		return fmt.Errorf("%w: entity %q", ErrDuplicate, e.ID)
	}
	if e.FolderID != nil && s.folder(*e.FolderID) == nil {
		return fmt.Errorf("folder %q: %w", *e.FolderID, ErrNotFound)
	}

	s.entities[e.ID] = e.Clone()
	s.order = append(s.order, e.ID)
	s.visible[e.ID] = true
	return nil
}

// Get returns a copy of the entity
func (s *Store) Get(id string) (*models.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", id, ErrNotFound)
	}
	return e.Clone(), nil
}

// List returns copies of every entity in insertion order
func (s *Store) List() []*models.Entity {
	out := make([]*models.Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id].Clone())
	}
	return out
}

// Len returns the number of entities
func (s *Store) Len() int {
	return len(s.order)
}

// Update applies patch to the entity. Geometry changes recompute every
// derived field first; on any error the stored entity is untouched.
func (s *Store) Update(id string, patch Patch) (*models.Entity, error) {
	current, ok := s.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", id, ErrNotFound)
	}

	next := current.Clone()
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Color != nil {
		color := strings.TrimSpace(*patch.Color)
		if color == "" {
			return nil, fmt.Errorf("%w: color must not be empty", models.ErrValidation)
		}
		next.Color = color
	}

	if patch.Points != nil {
		shape, err := models.Reshape(next.Shape, patch.Points)
		if err != nil {
			return nil, err
		}
		next.Shape = shape
	}
	if patch.RadiusM != nil {
		circle, ok := next.Shape.(*models.Circle)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no radius", models.ErrValidation, next.Kind())
		}
		circle.RadiusM = *patch.RadiusM
		if err := circle.Recompute(); err != nil {
			return nil, err
		}
	}
	if patch.AlongPercent != nil || patch.AlongDistanceM != nil {
		if err := patchAlong(next.Shape, patch); err != nil {
			return nil, err
		}
	}

	s.entities[id] = next
	return next.Clone(), nil
}

func patchAlong(shape models.Shape, patch Patch) error {
	along, ok := shape.(*models.AlongMeasure)
	if !ok {
		return fmt.Errorf("%w: %s has no along position", models.ErrValidation, shape.Kind())
	}
	if patch.AlongPercent != nil && patch.AlongDistanceM != nil {
		return fmt.Errorf("%w: give either an along percent or an along distance", models.ErrValidation)
	}

	var err error
	if patch.AlongPercent != nil {
		err = along.SetAlongPercent(*patch.AlongPercent)
	} else {
		err = along.SetAlongDistance(*patch.AlongDistanceM)
	}
	if err != nil {
		return err
	}
	return along.Recompute()
}

// Remove deletes the entity and its visibility. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	if _, ok := s.entities[id]; !ok {
		return
	}
	delete(s.entities, id)
	delete(s.visible, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SetVisible shows or hides one entity. It reports whether the id exists.
func (s *Store) SetVisible(id string, visible bool) bool {
	if _, ok := s.entities[id]; !ok {
		return false
	}
	s.visible[id] = visible
	return true
}

// IsVisible reports the visibility of an entity; unknown ids are not visible
func (s *Store) IsVisible(id string) bool {
	return s.visible[id]
}

// ToggleAll sets every entity and folder to *target. Without a target it
// hides everything when any entity is visible and shows everything
// otherwise. It returns the visibility applied.
func (s *Store) ToggleAll(target *bool) bool {
	var visible bool
	if target != nil {
		visible = *target
	} else {
		visible = !s.anyVisible()
	}

	for _, id := range s.order {
		s.visible[id] = visible
	}
	for _, f := range s.folders {
		f.Visible = visible
	}
	return visible
}

func (s *Store) anyVisible() bool {
	for _, id := range s.order {
		if s.visible[id] {
			return true
		}
	}
	return false
}

// CreateFolder appends a new folder
func (s *Store) CreateFolder(name string) *models.Folder {
	f := models.NewFolder(name)
	s.folders = append(s.folders, f)
	c := *f
	return &c
}

// RenameFolder changes the folder name. A blank name restores the default.
func (s *Store) RenameFolder(id, name string) error {
	f := s.folder(id)
	if f == nil {
		return fmt.Errorf("folder %q: %w", id, ErrNotFound)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.DefaultFolderName
	}
	f.Name = name
	return nil
}

// SetFolderCollapsed records whether the folder is folded in the tree
func (s *Store) SetFolderCollapsed(id string, collapsed bool) error {
	f := s.folder(id)
	if f == nil {
		return fmt.Errorf("folder %q: %w", id, ErrNotFound)
	}
	f.Collapsed = collapsed
	return nil
}

// DeleteFolder removes the folder and detaches its members, which stay in
// the store.
func (s *Store) DeleteFolder(id string) error {
	idx := -1
	for i, f := range s.folders {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("folder %q: %w", id, ErrNotFound)
	}

	for _, e := range s.entities {
		if e.FolderID != nil && *e.FolderID == id {
			e.FolderID = nil
		}
	}
	s.folders = append(s.folders[:idx], s.folders[idx+1:]...)
	return nil
}

// MoveToFolder assigns the entity to folderID (nil for no folder). An entity
// moved into a hidden folder becomes hidden.
func (s *Store) MoveToFolder(entityID string, folderID *string) error {
	e, ok := s.entities[entityID]
	if !ok {
		return fmt.Errorf("entity %q: %w", entityID, ErrNotFound)
	}
	if folderID == nil {
		e.FolderID = nil
		return nil
	}

	f := s.folder(*folderID)
	if f == nil {
		return fmt.Errorf("folder %q: %w", *folderID, ErrNotFound)
	}
	id := f.ID
	e.FolderID = &id
	if !f.Visible {
		s.visible[entityID] = false
	}
	return nil
}

// SetFolderVisible shows or hides the folder and every member
func (s *Store) SetFolderVisible(id string, visible bool) error {
	f := s.folder(id)
	if f == nil {
		return fmt.Errorf("folder %q: %w", id, ErrNotFound)
	}
	f.Visible = visible
	for _, eid := range s.order {
		if fid := s.entities[eid].FolderID; fid != nil && *fid == id {
			s.visible[eid] = visible
		}
	}
	return nil
}

// Folder returns a copy of the folder
func (s *Store) Folder(id string) (*models.Folder, error) {
	f := s.folder(id)
	if f == nil {
		return nil, fmt.Errorf("folder %q: %w", id, ErrNotFound)
	}
	c := *f
	return &c, nil
}

// Folders returns copies of every folder in creation order
func (s *Store) Folders() []*models.Folder {
	out := make([]*models.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		c := *f
		out = append(out, &c)
	}
	return out
}

// Members returns the entities of a folder, or the unfiled ones for nil
func (s *Store) Members(folderID *string) []*models.Entity {
	var out []*models.Entity
	for _, id := range s.order {
		e := s.entities[id]
		switch {
		case folderID == nil && e.FolderID == nil:
		case folderID != nil && e.FolderID != nil && *e.FolderID == *folderID:
		default:
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

// Snapshot returns a deep copy of the store contents
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Entities: s.List(),
		Visible:  make(map[string]bool, len(s.visible)),
		Folders:  s.Folders(),
	}
	for id, v := range s.visible {
		snap.Visible[id] = v
	}
	return snap
}

// Replace swaps the whole contents for snap. Nothing changes when snap is
// invalid. Entities missing from snap.Visible are visible.
func (s *Store) Replace(snap Snapshot) error {
	next := NewStore()
	for _, f := range snap.Folders {
		if f == nil || f.ID == "" {
			return fmt.Errorf("%w: folder without id", models.ErrValidation)
		}
		if next.folder(f.ID) != nil {
			return fmt.Errorf("%w: folder %q", ErrDuplicate, f.ID)
		}
		c := *f
		next.folders = append(next.folders, &c)
	}
	for _, e := range snap.Entities {
		if e == nil || e.Shape == nil {
			return fmt.Errorf("%w: entity has no shape", models.ErrValidation)
		}
		if _, ok := next.entities[e.ID]; ok || e.ID == "" {
			return fmt.Errorf("%w: entity %q", ErrDuplicate, e.ID)
		}
		c := e.Clone()
		if c.FolderID != nil && next.folder(*c.FolderID) == nil {
			// unknown folders fall back to the root
			c.FolderID = nil
		}
		next.entities[e.ID] = c
		next.order = append(next.order, e.ID)
		visible, ok := snap.Visible[e.ID]
		next.visible[e.ID] = visible || !ok
	}

	*s = *next
	return nil
}

// Clear removes every entity and folder
func (s *Store) Clear() {
	*s = *NewStore()
}

func (s *Store) folder(id string) *models.Folder {
	for _, f := range s.folders {
		if f.ID == id {
			return f
		}
	}
	return nil
}
