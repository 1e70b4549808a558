package handler

import (
	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/mapnotes-backend-go/internal/service"
	"github.com/jengzang/mapnotes-backend-go/pkg/response"
)

// GeometryComputer builds buffer and dissolve overlays
type GeometryComputer interface {
	Buffer(req service.BufferRequest) (*geojson.FeatureCollection, error)
	Dissolve(req service.DissolveRequest) (*geojson.FeatureCollection, error)
}

// GeometryHandler handles HTTP requests for derived overlays
type GeometryHandler struct {
	service GeometryComputer
}

// NewGeometryHandler creates a new geometry handler
func NewGeometryHandler(service GeometryComputer) *GeometryHandler {
	return &GeometryHandler{service: service}
}

// Buffer handles POST /api/v1/geometry/buffer
func (h *GeometryHandler) Buffer(c *gin.Context) {
	var req service.BufferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	fc, err := h.service.Buffer(req)
	if err != nil {
		fail(c, "Failed to buffer shape", err)
		return
	}
	response.Success(c, fc)
}

// Dissolve handles POST /api/v1/geometry/dissolve
func (h *GeometryHandler) Dissolve(c *gin.Context) {
	var req service.DissolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	fc, err := h.service.Dissolve(req)
	if err != nil {
		fail(c, "Failed to dissolve polygons", err)
		return
	}
	response.Success(c, fc)
}
