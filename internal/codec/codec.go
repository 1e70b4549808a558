// Package codec converts the collection to and from the persisted GeoJSON
// FeatureCollection document.
package codec

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jengzang/mapnotes-backend-go/internal/collection"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
)

// FormatVersion is written into every document
const FormatVersion = "2.1.0"

// PropVisible carries per-entity visibility inside a saved feature
const PropVisible = "_visible"

//go:embed document.schema.json
var documentSchema []byte

var schema = mustSchema(documentSchema)

func mustSchema(raw []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid document schema: %v", err))
	}
	return s
}

// ErrParse is matched by every ParseError
var ErrParse = errors.New("parse error")

// ParseError reports a document that cannot be read back
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "parse error: " + e.Msg + ": " + e.Err.Error()
	}
	return "parse error: " + e.Msg
}

// Is makes errors.Is(err, ErrParse) succeed
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ViewSettings is the map view state saved with a document. Layers is owned
// by the renderer (overlays, opacity, buffer radius, contours) and passed
// through untouched.
type ViewSettings struct {
	Center models.Point           `json:"center"`
	Zoom   int                    `json:"zoom"`
	Layers map[string]interface{} `json:"layerSettings"`
}

// Document is the persisted FeatureCollection. Unlike a plain GeoJSON
// collection it carries top-level properties.
type Document struct {
	Type       string             `json:"type"`
	Features   []*geojson.Feature `json:"features"`
	Properties Properties         `json:"properties"`
}

// Properties is the top-level metadata of a document
type Properties struct {
	Center        models.Point           `json:"center"`
	Zoom          int                    `json:"zoom"`
	SavedAt       string                 `json:"savedAt"`
	Version       string                 `json:"version"`
	Folders       []FolderRecord         `json:"folders"`
	LayerSettings map[string]interface{} `json:"layerSettings"`
}

// FolderRecord is a folder as written to a document. Visible is optional in
// older saves.
type FolderRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Collapsed bool   `json:"collapsed"`
	Visible   *bool  `json:"visible,omitempty"`
}

// Serialize encodes the collection and view state
func Serialize(snap collection.Snapshot, view ViewSettings, savedAt time.Time) *Document {
	doc := &Document{
		Type:     "FeatureCollection",
		Features: make([]*geojson.Feature, 0, len(snap.Entities)),
		Properties: Properties{
			Center:        view.Center,
			Zoom:          view.Zoom,
			SavedAt:       savedAt.UTC().Format(time.RFC3339),
			Version:       FormatVersion,
			Folders:       make([]FolderRecord, 0, len(snap.Folders)),
			LayerSettings: copyLayers(view.Layers),
		},
	}

	for _, e := range snap.Entities {
		f := models.ToFeature(e)
		visible, ok := snap.Visible[e.ID]
		f.SetProperty(PropVisible, visible || !ok)
		doc.Features = append(doc.Features, f)
	}
	for _, f := range snap.Folders {
		visible := f.Visible
		doc.Properties.Folders = append(doc.Properties.Folders, FolderRecord{
			ID:        f.ID,
			Name:      f.Name,
			Collapsed: f.Collapsed,
			Visible:   &visible,
		})
	}
	return doc
}

// Deserialize decodes a document. A document without features is an empty
// collection.
func Deserialize(doc *Document) (collection.Snapshot, ViewSettings, error) {
	if doc == nil || doc.Type != "FeatureCollection" {
		return collection.Snapshot{}, ViewSettings{}, &ParseError{Msg: `document is not a "FeatureCollection"`}
	}
	if doc.Features == nil {
		return collection.Snapshot{}, ViewSettings{}, &ParseError{Msg: `document has no "features" array`}
	}

	snap := collection.Snapshot{
		Entities: make([]*models.Entity, 0, len(doc.Features)),
		Visible:  make(map[string]bool, len(doc.Features)),
		Folders:  make([]*models.Folder, 0, len(doc.Properties.Folders)),
	}
	for i, f := range doc.Features {
		e, err := models.FromFeature(f)
		if err != nil {
			return collection.Snapshot{}, ViewSettings{}, &ParseError{Msg: fmt.Sprintf("feature %d", i), Err: err}
		}
		if _, dup := snap.Visible[e.ID]; dup {
			return collection.Snapshot{}, ViewSettings{}, &ParseError{Msg: fmt.Sprintf("feature %d: duplicate id %q", i, e.ID)}
		}
		visible, ok := f.Properties[PropVisible].(bool)
		snap.Entities = append(snap.Entities, e)
		snap.Visible[e.ID] = visible || !ok
	}

	seen := make(map[string]bool, len(doc.Properties.Folders))
	for i, rec := range doc.Properties.Folders {
		if rec.ID == "" || seen[rec.ID] {
			return collection.Snapshot{}, ViewSettings{}, &ParseError{Msg: fmt.Sprintf("folder %d: missing or duplicate id", i)}
		}
		seen[rec.ID] = true
		snap.Folders = append(snap.Folders, &models.Folder{
			ID:        rec.ID,
			Name:      rec.Name,
			Collapsed: rec.Collapsed,
			Visible:   rec.Visible == nil || *rec.Visible,
		})
	}

	view := ViewSettings{
		Center: doc.Properties.Center,
		Zoom:   doc.Properties.Zoom,
		Layers: copyLayers(doc.Properties.LayerSettings),
	}
	return snap, view, nil
}

// Marshal renders the document as indented JSON
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Unmarshal validates raw bytes against the document schema and parses them
func Unmarshal(data []byte) (*Document, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &ParseError{Msg: "invalid JSON", Err: err}
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &ParseError{Msg: strings.Join(problems, "; ")}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Msg: "invalid document", Err: err}
	}
	return &doc, nil
}

// Decode is Unmarshal followed by Deserialize
func Decode(data []byte) (collection.Snapshot, ViewSettings, *Document, error) {
	doc, err := Unmarshal(data)
	if err != nil {
		return collection.Snapshot{}, ViewSettings{}, nil, err
	}
	snap, view, err := Deserialize(doc)
	if err != nil {
		return collection.Snapshot{}, ViewSettings{}, nil, err
	}
	return snap, view, doc, nil
}

// Encode is Serialize followed by Marshal
func Encode(snap collection.Snapshot, view ViewSettings, savedAt time.Time) ([]byte, error) {
	return Marshal(Serialize(snap, view, savedAt))
}

func copyLayers(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
