package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/mapnotes-backend-go/internal/codec"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/service"
	"github.com/jengzang/mapnotes-backend-go/pkg/response"
)

// DocumentHandler handles import, export and named snapshots
type DocumentHandler struct {
	service   *service.WorkspaceService
	maxUpload int64
}

// NewDocumentHandler creates a new document handler. Imports larger than
// maxUpload bytes are rejected.
func NewDocumentHandler(service *service.WorkspaceService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{service: service, maxUpload: maxUpload}
}

// ImportSummary describes an accepted import
type ImportSummary struct {
	Features int    `json:"features"`
	Folders  int    `json:"folders"`
	Version  string `json:"version"`
	SavedAt  string `json:"savedAt"`
}

type snapshotRequest struct {
	Name string `json:"name" binding:"required"`
}

// Export handles GET /api/v1/document/export
func (h *DocumentHandler) Export(c *gin.Context) {
	data, err := h.service.Export()
	if err != nil {
		response.InternalError(c, "Failed to export document", err)
		return
	}

	filename := fmt.Sprintf("carte_%s.geojson", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/geo+json", data)
}

// Import handles POST /api/v1/document/import. The document is either the
// raw request body or a multipart "file" field.
func (h *DocumentHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	data, err := h.readUpload(c)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Document exceeds %s", humanize.IBytes(uint64(h.maxUpload))), err)
		return
	}
	if err != nil {
		response.BadRequest(c, "Failed to read document", err)
		return
	}
	if len(data) == 0 {
		response.BadRequest(c, "Empty document", nil)
		return
	}

	doc, err := h.service.Import(c.Request.Context(), data)
	if err != nil {
		fail(c, "Failed to import document", err)
		return
	}
	response.Success(c, ImportSummary{
		Features: len(doc.Features),
		Folders:  len(doc.Properties.Folders),
		Version:  doc.Properties.Version,
		SavedAt:  doc.Properties.SavedAt,
	})
}

func (h *DocumentHandler) readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request.Body)
}

// Reset handles DELETE /api/v1/document
func (h *DocumentHandler) Reset(c *gin.Context) {
	h.service.Reset(c.Request.Context())
	response.Success(c, h.service.State())
}

// GetView handles GET /api/v1/document/view
func (h *DocumentHandler) GetView(c *gin.Context) {
	response.Success(c, h.service.View())
}

// SetView handles PUT /api/v1/document/view
func (h *DocumentHandler) SetView(c *gin.Context) {
	var view codec.ViewSettings
	if err := c.ShouldBindJSON(&view); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	if err := h.service.SetView(c.Request.Context(), view); err != nil {
		fail(c, "Invalid view", err)
		return
	}
	response.Success(c, h.service.View())
}

// GetSnapshots handles GET /api/v1/document/snapshots
func (h *DocumentHandler) GetSnapshots(c *gin.Context) {
	var filter models.DocumentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	docs, err := h.service.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to list documents", err)
		return
	}
	response.Success(c, docs)
}

// SaveSnapshot handles POST /api/v1/document/snapshots
func (h *DocumentHandler) SaveSnapshot(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	summary, err := h.service.SaveAs(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, "Failed to save document", err)
		return
	}
	response.Created(c, summary)
}

// OpenSnapshot handles POST /api/v1/document/snapshots/:name/open
func (h *DocumentHandler) OpenSnapshot(c *gin.Context) {
	doc, err := h.service.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, "Failed to open document", err)
		return
	}
	response.Success(c, ImportSummary{
		Features: len(doc.Features),
		Folders:  len(doc.Properties.Folders),
		Version:  doc.Properties.Version,
		SavedAt:  doc.Properties.SavedAt,
	})
}

// DeleteSnapshot handles DELETE /api/v1/document/snapshots/:name
func (h *DocumentHandler) DeleteSnapshot(c *gin.Context) {
	name := c.Param("name")
	if err := h.service.DeleteDocument(c.Request.Context(), name); err != nil {
		fail(c, "Failed to delete document", err)
		return
	}
	response.Success(c, gin.H{"name": name})
}
