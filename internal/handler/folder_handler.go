package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/mapnotes-backend-go/internal/service"
	"github.com/jengzang/mapnotes-backend-go/pkg/response"
)

// FolderHandler handles HTTP requests for folders
type FolderHandler struct {
	service *service.WorkspaceService
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(service *service.WorkspaceService) *FolderHandler {
	return &FolderHandler{service: service}
}

type folderRequest struct {
	Name string `json:"name"`
}

// GetFolders handles GET /api/v1/folders
func (h *FolderHandler) GetFolders(c *gin.Context) {
	response.Success(c, h.service.Folders())
}

// CreateFolder handles POST /api/v1/folders
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	var req folderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}
	response.Created(c, h.service.CreateFolder(c.Request.Context(), req.Name))
}

// UpdateFolder handles PATCH /api/v1/folders/:id
func (h *FolderHandler) UpdateFolder(c *gin.Context) {
	var upd service.FolderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	f, err := h.service.UpdateFolder(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		fail(c, "Failed to update folder", err)
		return
	}
	response.Success(c, f)
}

// DeleteFolder handles DELETE /api/v1/folders/:id
func (h *FolderHandler) DeleteFolder(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.DeleteFolder(c.Request.Context(), id); err != nil {
		fail(c, "Failed to delete folder", err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
