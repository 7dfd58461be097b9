package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/database"
	"github.com/contentgrid/canvas-export/internal/exporters"
	"github.com/contentgrid/canvas-export/internal/tasks"
)

// RouterConfig carries every dependency of the HTTP layer. Optional fields
// (TaskClient) degrade the relevant endpoints rather than failing startup.
type RouterConfig struct {
	Database         *database.Database
	ExportService    *exporters.Service
	TaskClient       *tasks.Client
	APIToken         string
	DefaultCourseIDs []int64
	Version          string
	Logger           *zap.Logger
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/healthcheck", health.Status)

	exports := NewExportController(cfg)
	api := router.Group("/api")
	{
		api.POST("/export", exports.Trigger)
		api.GET("/exports", exports.List)
		api.GET("/exports/:id", exports.Get)
	}

	return router
}
