package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/mapnotes-backend-go/internal/drawing"
	"github.com/jengzang/mapnotes-backend-go/internal/measurement"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/service"
	"github.com/jengzang/mapnotes-backend-go/internal/session"
	"github.com/jengzang/mapnotes-backend-go/pkg/response"
)

// DrawHandler handles HTTP requests for the drawing tools
type DrawHandler struct {
	service *service.WorkspaceService
}

// NewDrawHandler creates a new draw handler
func NewDrawHandler(service *service.WorkspaceService) *DrawHandler {
	return &DrawHandler{service: service}
}

// ToolInfo describes a toolbar entry
type ToolInfo struct {
	Kind  models.Kind `json:"kind"`
	Title string      `json:"title"`
	Color string      `json:"color"`
}

type selectRequest struct {
	Tool string `json:"tool" binding:"required"`
}

// EventRequest is a map click forwarded by the renderer
type EventRequest struct {
	Type session.Event `json:"type" binding:"required"`
	Lat  *float64      `json:"lat" binding:"required"`
	Lng  *float64      `json:"lng" binding:"required"`
}

func (r EventRequest) point() models.Point {
	return models.Point{Lat: *r.Lat, Lng: *r.Lng}
}

// EventResponse reports what a click produced
type EventResponse struct {
	Entity *geojson.Feature       `json:"entity,omitempty"`
	Result *measurement.Result    `json:"result,omitempty"`
	State  service.WorkspaceState `json:"state"`
}

// GetTools handles GET /api/v1/draw/tools
func (h *DrawHandler) GetTools(c *gin.Context) {
	tools := make([]ToolInfo, 0, len(drawing.Tools()))
	for _, k := range drawing.Tools() {
		tools = append(tools, ToolInfo{Kind: k, Title: k.DefaultTitle(), Color: k.DefaultColor()})
	}
	response.Success(c, tools)
}

// GetState handles GET /api/v1/draw/state
func (h *DrawHandler) GetState(c *gin.Context) {
	response.Success(c, h.service.State())
}

// SelectTool handles POST /api/v1/draw/tool
func (h *DrawHandler) SelectTool(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	kind, err := models.ParseKind(req.Tool)
	if err != nil {
		fail(c, "Unknown tool", err)
		return
	}

	state, err := h.service.SelectTool(kind)
	if err != nil {
		fail(c, "Failed to select tool", err)
		return
	}
	response.Success(c, state)
}

// HandleEvent handles POST /api/v1/draw/event and /api/v1/measure/event
func (h *DrawHandler) HandleEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	if req.Type != session.EventClick && req.Type != session.EventDoubleClick {
		response.BadRequest(c, "Event type must be click or dblclick", nil)
		return
	}

	out, err := h.service.HandleEvent(c.Request.Context(), req.Type, req.point())
	if err != nil {
		fail(c, "Failed to handle event", err)
		return
	}

	resp := EventResponse{State: h.service.State()}
	if out.Entity != nil {
		resp.Entity = featureOf(out.Entity, true)
	}
	resp.Result = out.Result
	response.Success(c, resp)
}

// MouseMove handles POST /api/v1/draw/move
func (h *DrawHandler) MouseMove(c *gin.Context) {
	var p models.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	preview, ok := h.service.MouseMove(p)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	response.Success(c, preview)
}

// Confirm handles POST /api/v1/draw/confirm
func (h *DrawHandler) Confirm(c *gin.Context) {
	var params drawing.Params
	if err := c.ShouldBindJSON(&params); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	e, err := h.service.Confirm(c.Request.Context(), params)
	if err != nil {
		fail(c, "Failed to confirm drawing", err)
		return
	}
	response.Created(c, featureOf(e, true))
}

// Finish handles POST /api/v1/draw/finish
func (h *DrawHandler) Finish(c *gin.Context) {
	e, err := h.service.FinishDrawing(c.Request.Context())
	h.finished(c, e, err)
}

// Escape handles POST /api/v1/draw/escape
func (h *DrawHandler) Escape(c *gin.Context) {
	e, err := h.service.Escape(c.Request.Context())
	h.finished(c, e, err)
}

func (h *DrawHandler) finished(c *gin.Context, e *models.Entity, err error) {
	if err != nil {
		fail(c, "Failed to finish drawing", err)
		return
	}
	resp := EventResponse{State: h.service.State()}
	if e != nil {
		resp.Entity = featureOf(e, true)
	}
	response.Success(c, resp)
}
