package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/mapnotes-backend-go/internal/measurement"
	"github.com/jengzang/mapnotes-backend-go/internal/service"
	"github.com/jengzang/mapnotes-backend-go/pkg/response"
)

// MeasureHandler handles HTTP requests for the measurement tools
type MeasureHandler struct {
	service *service.WorkspaceService
}

// NewMeasureHandler creates a new measure handler
func NewMeasureHandler(service *service.WorkspaceService) *MeasureHandler {
	return &MeasureHandler{service: service}
}

type startRequest struct {
	Kind string `json:"kind" binding:"required"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type saveRequest struct {
	Title    string  `json:"title"`
	FolderID *string `json:"folderId"`
}

// GetKinds handles GET /api/v1/measure/kinds
func (h *MeasureHandler) GetKinds(c *gin.Context) {
	kinds := make([]ToolInfo, 0, len(measurement.Kinds()))
	for _, k := range measurement.Kinds() {
		kinds = append(kinds, ToolInfo{Kind: k, Title: k.DefaultTitle(), Color: k.DefaultColor()})
	}
	response.Success(c, kinds)
}

// Start handles POST /api/v1/measure/start
func (h *MeasureHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	kind, err := measurement.ParseKind(req.Kind)
	if err != nil {
		fail(c, "Unknown measurement", err)
		return
	}

	state, err := h.service.StartMeasurement(kind)
	if err != nil {
		fail(c, "Failed to start measurement", err)
		return
	}
	response.Success(c, state)
}

// Rename handles PUT /api/v1/measure/title
func (h *MeasureHandler) Rename(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	state, err := h.service.RenameMeasurement(req.Title)
	if err != nil {
		fail(c, "Failed to rename measurement", err)
		return
	}
	response.Success(c, state)
}

// Save handles POST /api/v1/measure/save
func (h *MeasureHandler) Save(c *gin.Context) {
	var req saveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}

	e, err := h.service.SaveMeasurement(c.Request.Context(), req.Title, req.FolderID)
	if err != nil {
		fail(c, "Failed to save measurement", err)
		return
	}
	_, visible, err := h.service.GetEntity(e.ID)
	if err != nil {
		fail(c, "Failed to save measurement", err)
		return
	}
	response.Created(c, featureOf(e, visible))
}

// Discard handles POST /api/v1/measure/discard
func (h *MeasureHandler) Discard(c *gin.Context) {
	if err := h.service.DiscardMeasurement(); err != nil {
		fail(c, "Failed to discard measurement", err)
		return
	}
	response.Success(c, h.service.State())
}
