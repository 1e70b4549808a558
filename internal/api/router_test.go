package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/mapnotes-backend-go/internal/codec"
	"github.com/jengzang/mapnotes-backend-go/internal/database"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/repository"
	"github.com/jengzang/mapnotes-backend-go/internal/service"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type fakeGeometry struct{}

func (fakeGeometry) Buffer(req service.BufferRequest) (*geojson.FeatureCollection, error) {
	if req.RadiusM <= 0 {
		return nil, &models.ValidationError{Msg: "radius"}
	}
	return geojson.NewFeatureCollection(), nil
}

func (fakeGeometry) Dissolve(service.DissolveRequest) (*geojson.FeatureCollection, error) {
	return geojson.NewFeatureCollection(), nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ws := service.NewWorkspaceService(repository.NewDocumentRepository(db), "autosave",
		codec.ViewSettings{Center: models.Point{Lat: 45, Lng: 5}, Zoom: 10})
	require.NoError(t, ws.RestoreAutosave(context.Background()))

	router := SetupRouter(Deps{
		Workspace: ws,
		Geometry:  fakeGeometry{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxUpload: 1 << 20,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func click(kind string, lat, lng float64) gin.H {
	return gin.H{"type": kind, "lat": lat, "lng": lng}
}

func entityCount(t *testing.T, s *testServer) int {
	t.Helper()
	w, env := s.do(http.MethodGet, "/api/v1/entities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	return list.Count
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDrawExportImport(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodPost, "/api/v1/draw/tool", gin.H{"tool": "line"})
	require.Equal(t, http.StatusOK, w.Code)

	s.do(http.MethodPost, "/api/v1/draw/event", click("click", 0, 0))
	s.do(http.MethodPost, "/api/v1/draw/event", click("click", 0, 0.01))

	w, _ = s.do(http.MethodPost, "/api/v1/draw/move", gin.H{"lat": 0, "lng": 0.02})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/draw/event", click("dblclick", 0, 0.01))
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Entity *geojson.Feature `json:"entity"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotNil(t, out.Entity)
	assert.Equal(t, "line", out.Entity.Properties["type"])
	assert.Len(t, out.Entity.Geometry.LineString, 2)

	w, _ = s.do(http.MethodPost, "/api/v1/entities", gin.H{"type": "marker", "coordinates": "45.1, 5.7"})
	require.Equal(t, http.StatusCreated, w.Code)

	// export
	w, _ = s.do(http.MethodGet, "/api/v1/document/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".geojson")
	exported := w.Body.Bytes()
	doc, err := codec.Unmarshal(exported)
	require.NoError(t, err)
	assert.Len(t, doc.Features, 2)

	// reset then import restores everything
	w, _ = s.do(http.MethodDelete, "/api/v1/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, entityCount(t, s))

	w, env = s.do(http.MethodPost, "/api/v1/document/import", exported)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, 2, entityCount(t, s))

	// a broken document leaves the collection alone
	w, env = s.do(http.MethodPost, "/api/v1/document/import", []byte(`{"type":"FeatureCollection"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Error)
	assert.Equal(t, 2, entityCount(t, s))
}

func TestImportMultipart(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "carte.geojson")
	require.NoError(t, err)
	_, err = part.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","id":"m1","geometry":{"type":"Point","coordinates":[5,45]},"properties":{"type":"marker"}}]}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/document/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(http.MethodGet, "/api/v1/entities/m1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var f geojson.Feature
	require.NoError(t, json.Unmarshal(env.Data, &f))
	assert.Equal(t, "Marqueur", f.Properties["title"])
	assert.Equal(t, true, f.Properties["_visible"])
}

func TestMeasureAndFolders(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/folders", gin.H{"name": "Relevés"})
	require.Equal(t, http.StatusCreated, w.Code)
	var folder models.Folder
	require.NoError(t, json.Unmarshal(env.Data, &folder))

	w, _ = s.do(http.MethodPost, "/api/v1/measure/start", gin.H{"kind": "distance"})
	require.Equal(t, http.StatusOK, w.Code)
	s.do(http.MethodPost, "/api/v1/measure/event", click("click", 0, 0))
	w, env = s.do(http.MethodPost, "/api/v1/measure/event", click("click", 0, 0.01))
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Result struct {
			Summary string `json:"summary"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "Distance : 1,11 km", out.Result.Summary)

	w, env = s.do(http.MethodPost, "/api/v1/measure/save", gin.H{"title": "Trajet", "folderId": folder.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var saved geojson.Feature
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, folder.ID, saved.Properties["folderId"])

	// hiding the folder hides its members
	w, _ = s.do(http.MethodPatch, "/api/v1/folders/"+folder.ID, gin.H{"visible": false})
	require.Equal(t, http.StatusOK, w.Code)
	id, _ := saved.ID.(string)
	_, env = s.do(http.MethodGet, "/api/v1/entities/"+id, nil)
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, false, saved.Properties["_visible"])

	w, env = s.do(http.MethodGet, "/api/v1/entities?folder="+folder.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"count":1`)

	w, _ = s.do(http.MethodDelete, "/api/v1/folders/"+folder.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(http.MethodGet, "/api/v1/entities?folder=root", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"count":1`)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"unknown tool", http.MethodPost, "/api/v1/draw/tool", gin.H{"tool": "spline"}, http.StatusBadRequest},
		{"measurement as tool", http.MethodPost, "/api/v1/draw/tool", gin.H{"tool": "measurement-area"}, http.StatusBadRequest},
		{"bad event type", http.MethodPost, "/api/v1/draw/event", click("hover", 0, 0), http.StatusBadRequest},
		{"confirm while idle", http.MethodPost, "/api/v1/draw/confirm", gin.H{"radiusM": 10}, http.StatusConflict},
		{"discard without result", http.MethodPost, "/api/v1/measure/discard", nil, http.StatusConflict},
		{"unknown entity", http.MethodGet, "/api/v1/entities/nope", nil, http.StatusNotFound},
		{"unknown entity visibility", http.MethodPut, "/api/v1/entities/nope/visibility", gin.H{"visible": true}, http.StatusNotFound},
		{"polygon with two points", http.MethodPost, "/api/v1/entities", gin.H{"type": "polygon", "points": []gin.H{{"lat": 0, "lng": 0}, {"lat": 1, "lng": 1}}}, http.StatusBadRequest},
		{"bad coordinates", http.MethodPost, "/api/v1/entities", gin.H{"type": "marker", "coordinates": "north"}, http.StatusBadRequest},
		{"unknown folder", http.MethodPatch, "/api/v1/folders/nope", gin.H{"name": "x"}, http.StatusNotFound},
		{"missing snapshot", http.MethodPost, "/api/v1/document/snapshots/nope/open", nil, http.StatusNotFound},
		{"bad zoom", http.MethodPut, "/api/v1/document/view", gin.H{"center": gin.H{"lat": 0, "lng": 0}, "zoom": 40}, http.StatusBadRequest},
		{"bad buffer", http.MethodPost, "/api/v1/geometry/buffer", gin.H{"radiusM": 0}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status, env.Code)
		})
	}
}

func TestSnapshots(t *testing.T) {
	s := newTestServer(t)

	s.do(http.MethodPost, "/api/v1/entities", gin.H{"type": "marker", "points": []gin.H{{"lat": 1, "lng": 2}}})

	w, _ := s.do(http.MethodPost, "/api/v1/document/snapshots", gin.H{"name": "plan"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/document/snapshots?prefix=pl", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.DocumentsResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Data[0].FeatureCount)

	s.do(http.MethodDelete, "/api/v1/document", nil)
	w, _ = s.do(http.MethodPost, "/api/v1/document/snapshots/plan/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, entityCount(t, s))

	w, _ = s.do(http.MethodDelete, "/api/v1/document/snapshots/plan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/document/snapshots/plan", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
