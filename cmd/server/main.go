package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mapnotes-backend-go/internal/api"
	"github.com/jengzang/mapnotes-backend-go/internal/codec"
	"github.com/jengzang/mapnotes-backend-go/internal/config"
	"github.com/jengzang/mapnotes-backend-go/internal/database"
	"github.com/jengzang/mapnotes-backend-go/internal/middleware"
	"github.com/jengzang/mapnotes-backend-go/internal/models"
	"github.com/jengzang/mapnotes-backend-go/internal/pkg/logging"
	"github.com/jengzang/mapnotes-backend-go/internal/pkg/metrics"
	"github.com/jengzang/mapnotes-backend-go/internal/repository"
	"github.com/jengzang/mapnotes-backend-go/internal/service"
	"github.com/jengzang/mapnotes-backend-go/internal/topology"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.Open(database.Config{Path: cfg.Database.Path})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Services
	docs := repository.NewDocumentRepository(db)
	workspace := service.NewWorkspaceService(docs, cfg.Workspace.AutosaveSlot, codec.ViewSettings{
		Center: models.Point{Lat: cfg.Workspace.CenterLat, Lng: cfg.Workspace.CenterLng},
		Zoom:   cfg.Workspace.Zoom,
	})
	if err := workspace.RestoreAutosave(ctx); err != nil {
		// a broken autosave must not keep the server down
		slog.Error("autosave not restored, starting empty", "error", err)
	}
	geometry := service.NewGeometryService(topology.NewEngine(), workspace)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	go limiter.Run(ctx.Done())

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Stats())
			}
		}
	}()

	router := api.SetupRouter(api.Deps{
		Workspace:   workspace,
		Geometry:    geometry,
		RateLimiter: limiter,
		Logger:      slog.Default(),
		MaxUpload:   cfg.Server.MaxUploadSize,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", "addr", srv.Addr, "database", cfg.Database.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped")
}
