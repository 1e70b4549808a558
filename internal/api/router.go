package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mapnotes-backend-go/internal/handler"
	"github.com/jengzang/mapnotes-backend-go/internal/middleware"
	"github.com/jengzang/mapnotes-backend-go/internal/pkg/metrics"
	"github.com/jengzang/mapnotes-backend-go/internal/service"
)

// Deps are the services the router exposes
type Deps struct {
	Workspace   *service.WorkspaceService
	Geometry    handler.GeometryComputer
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
	MaxUpload   int64
}

// SetupRouter builds the HTTP API
func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(metrics.Middleware())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Map notes backend is running",
		})
	})
	r.GET("/metrics", metrics.Handler())

	drawH := handler.NewDrawHandler(deps.Workspace)
	measureH := handler.NewMeasureHandler(deps.Workspace)
	entityH := handler.NewEntityHandler(deps.Workspace)
	folderH := handler.NewFolderHandler(deps.Workspace)
	documentH := handler.NewDocumentHandler(deps.Workspace, deps.MaxUpload)
	geometryH := handler.NewGeometryHandler(deps.Geometry)

	api := r.Group("/api/v1")
	if deps.RateLimiter != nil {
		api.Use(middleware.RateLimit(deps.RateLimiter))
	}
	{
		draw := api.Group("/draw")
		{
			draw.GET("/tools", drawH.GetTools)
			draw.GET("/state", drawH.GetState)
			draw.POST("/tool", drawH.SelectTool)
			draw.POST("/event", drawH.HandleEvent)
			draw.POST("/move", drawH.MouseMove)
			draw.POST("/confirm", drawH.Confirm)
			draw.POST("/finish", drawH.Finish)
			draw.POST("/escape", drawH.Escape)
		}

		measure := api.Group("/measure")
		{
			measure.GET("/kinds", measureH.GetKinds)
			measure.POST("/start", measureH.Start)
			measure.POST("/event", drawH.HandleEvent)
			measure.POST("/move", drawH.MouseMove)
			measure.PUT("/title", measureH.Rename)
			measure.POST("/save", measureH.Save)
			measure.POST("/discard", measureH.Discard)
		}

		entities := api.Group("/entities")
		{
			entities.GET("", entityH.GetEntities)
			entities.POST("", entityH.CreateEntity)
			entities.POST("/visibility", entityH.ToggleAll)
			entities.GET("/:id", entityH.GetEntity)
			entities.PATCH("/:id", entityH.UpdateEntity)
			entities.DELETE("/:id", entityH.DeleteEntity)
			entities.PUT("/:id/visibility", entityH.SetVisibility)
			entities.PUT("/:id/folder", entityH.MoveToFolder)
		}

		folders := api.Group("/folders")
		{
			folders.GET("", folderH.GetFolders)
			folders.POST("", folderH.CreateFolder)
			folders.PATCH("/:id", folderH.UpdateFolder)
			folders.DELETE("/:id", folderH.DeleteFolder)
		}

		document := api.Group("/document")
		{
			document.GET("/export", documentH.Export)
			document.POST("/import", documentH.Import)
			document.DELETE("", documentH.Reset)
			document.GET("/view", documentH.GetView)
			document.PUT("/view", documentH.SetView)
			document.GET("/snapshots", documentH.GetSnapshots)
			document.POST("/snapshots", documentH.SaveSnapshot)
			document.POST("/snapshots/:name/open", documentH.OpenSnapshot)
			document.DELETE("/snapshots/:name", documentH.DeleteSnapshot)
		}

		geometry := api.Group("/geometry")
		{
			geometry.POST("/buffer", geometryH.Buffer)
			geometry.POST("/dissolve", geometryH.Dissolve)
		}
	}

	return r
}
