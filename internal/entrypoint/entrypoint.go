package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/canvas"
	"github.com/contentgrid/canvas-export/internal/config"
	"github.com/contentgrid/canvas-export/internal/database"
	"github.com/contentgrid/canvas-export/internal/entities"
	"github.com/contentgrid/canvas-export/internal/exporters"
	http_controllers "github.com/contentgrid/canvas-export/internal/http"
	"github.com/contentgrid/canvas-export/internal/parser"
	"github.com/contentgrid/canvas-export/internal/sanitize"
	"github.com/contentgrid/canvas-export/internal/scheduler"
	"github.com/contentgrid/canvas-export/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("host", cfg.HTTP.Host), zap.Int32("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Shutdown callback first so the task queue stops taking work before
	// the listener closes.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}

	logger.Info("server exiting")
}

// Run wires the whole service and serves it.
func Run(cfg *config.Config, version string) {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting canvas-export", zap.String("version", version))

	if cfg.Canvas.BaseURL == "" || cfg.Canvas.Token == "" {
		logger.Warn("canvas credentials not fully configured, export endpoints will fail until CANVAS_BASE_URL and CANVAS_API_TOKEN are set")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", zap.Error(err))
		}
	}()
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	source := entities.ContentSource{
		UID:     cfg.Canvas.SourceUID,
		Name:    cfg.Canvas.Name,
		BaseURL: cfg.Canvas.BaseURL,
	}

	client := canvas.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.Token)
	courseParser := parser.NewCourseParser(client, sanitize.NewHTMLStripper(), source, logger)
	exportService := exporters.NewService(courseParser, db, db, source.Name, logger)

	// Background task queue for API-triggered exports
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize task queue", zap.Error(err))
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewCanvasExportQueue(exportService, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic sync of the configured courses
	var syncScheduler *scheduler.CanvasSyncScheduler
	if cfg.CanvasSync.Enabled {
		syncScheduler = scheduler.NewCanvasSyncScheduler(
			exportService, cfg.Canvas.CourseIDs, cfg.CanvasSync.Schedule, logger)
		if err := syncScheduler.Start(context.Background()); err != nil {
			logger.Fatal("failed to start sync scheduler", zap.Error(err))
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:         db,
		ExportService:    exportService,
		TaskClient:       taskClient,
		APIToken:         cfg.API.Token,
		DefaultCourseIDs: cfg.Canvas.CourseIDs,
		Version:          version,
		Logger:           logger,
	})

	onShutdown := func(ctx context.Context) {
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, logger, onShutdown)
}
