package handler

import (
	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/mapnotes-backend-go/internal/collection"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/service"
	"github.com/jengzang/mapnotes-backend-go/pkg/response"
)

// EntityHandler handles HTTP requests for stored entities
type EntityHandler struct {
	service *service.WorkspaceService
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(service *service.WorkspaceService) *EntityHandler {
	return &EntityHandler{service: service}
}

// CreateEntityRequest adds an entity from coordinates. Points may be given
// as a list or as text with one "lat, lng" pair per line.
type CreateEntityRequest struct {
	Type        string         `json:"type" binding:"required"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       string         `json:"color"`
	FolderID    *string        `json:"folderId"`
	Points      []models.Point `json:"points"`
	Coordinates string         `json:"coordinates"`

	RadiusM      float64  `json:"radiusM"`
	DistanceM    float64  `json:"distanceM"`
	BearingDeg   float64  `json:"bearingDeg"`
	AlongPercent *float64 `json:"alongPercent"`
}

// EntityFilter selects entities by folder ("root" for unfiled ones)
type EntityFilter struct {
	Folder string `form:"folder"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

type moveRequest struct {
	FolderID *string `json:"folderId"`
}

// GetEntities handles GET /api/v1/entities
func (h *EntityHandler) GetEntities(c *gin.Context) {
	var filter EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	snap := h.service.Snapshot()
	entities := snap.Entities
	if filter.Folder != "" {
		var id *string
		if filter.Folder != "root" {
			id = &filter.Folder
		}
		members, err := h.service.FolderMembers(id)
		if err != nil {
			fail(c, "Folder not found", err)
			return
		}
		entities = members
	}

	fc := geojson.NewFeatureCollection()
	for _, e := range entities {
		fc.AddFeature(featureOf(e, snap.Visible[e.ID]))
	}
	response.Success(c, gin.H{
		"data":  fc,
		"count": len(entities),
	})
}

// GetEntity handles GET /api/v1/entities/:id
func (h *EntityHandler) GetEntity(c *gin.Context) {
	e, visible, err := h.service.GetEntity(c.Param("id"))
	if err != nil {
		fail(c, "Entity not found", err)
		return
	}
	response.Success(c, featureOf(e, visible))
}

// CreateEntity handles POST /api/v1/entities
func (h *EntityHandler) CreateEntity(c *gin.Context) {
	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	kind, err := models.ParseKind(req.Type)
	if err != nil {
		fail(c, "Unknown entity type", err)
		return
	}

	points := req.Points
	if len(points) == 0 && req.Coordinates != "" {
		points, err = models.ParsePoints(req.Coordinates)
		if err != nil {
			fail(c, "Invalid coordinates", err)
			return
		}
	}

	e, err := h.service.AddEntity(c.Request.Context(), kind, models.Input{
		Title:        req.Title,
		Description:  req.Description,
		Color:        req.Color,
		FolderID:     req.FolderID,
		Points:       points,
		RadiusM:      req.RadiusM,
		DistanceM:    req.DistanceM,
		BearingDeg:   req.BearingDeg,
		AlongPercent: req.AlongPercent,
	})
	if err != nil {
		fail(c, "Failed to create entity", err)
		return
	}
	h.respond(c, e, true)
}

// UpdateEntity handles PATCH /api/v1/entities/:id
func (h *EntityHandler) UpdateEntity(c *gin.Context) {
	var patch collection.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	e, err := h.service.UpdateEntity(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, "Failed to update entity", err)
		return
	}
	h.respond(c, e, false)
}

// DeleteEntity handles DELETE /api/v1/entities/:id
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	h.service.RemoveEntity(c.Request.Context(), c.Param("id"))
	response.Success(c, gin.H{"id": c.Param("id")})
}

// SetVisibility handles PUT /api/v1/entities/:id/visibility
func (h *EntityHandler) SetVisibility(c *gin.Context) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Visible == nil {
		response.BadRequest(c, "visible is required", err)
		return
	}

	id := c.Param("id")
	if err := h.service.SetVisible(c.Request.Context(), id, *req.Visible); err != nil {
		fail(c, "Entity not found", err)
		return
	}
	response.Success(c, gin.H{"id": id, "visible": *req.Visible})
}

// ToggleAll handles POST /api/v1/entities/visibility. Without a body every
// entity is hidden if any is visible, shown otherwise.
func (h *EntityHandler) ToggleAll(c *gin.Context) {
	var req visibilityRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}
	visible := h.service.ToggleAll(c.Request.Context(), req.Visible)
	response.Success(c, gin.H{"visible": visible})
}

// MoveToFolder handles PUT /api/v1/entities/:id/folder
func (h *EntityHandler) MoveToFolder(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	e, err := h.service.MoveToFolder(c.Request.Context(), c.Param("id"), req.FolderID)
	if err != nil {
		fail(c, "Failed to move entity", err)
		return
	}
	h.respond(c, e, false)
}

func (h *EntityHandler) respond(c *gin.Context, e *models.Entity, created bool) {
	_, visible, err := h.service.GetEntity(e.ID)
	if err != nil {
		fail(c, "Entity not found", err)
		return
	}
	if created {
		response.Created(c, featureOf(e, visible))
		return
	}
	response.Success(c, featureOf(e, visible))
}
