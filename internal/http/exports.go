package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/database"
	"github.com/contentgrid/canvas-export/internal/exporters"
	"github.com/contentgrid/canvas-export/internal/tasks"
)

const defaultRunListLimit = 50

type ExportTriggerRequest struct {
	CourseIDs []int64 `json:"course_ids"`
}

type ExportTriggerResponse struct {
	Queued    bool                 `json:"queued"`
	CourseIDs []int64              `json:"course_ids"`
	Report    *exporters.RunReport `json:"report,omitempty"`
}

// ExportController triggers export runs and lists past ones. When a task
// client is available, triggered runs are queued and processed in the
// background; otherwise the run executes synchronously within the request.
type ExportController struct {
	db               *database.Database
	service          *exporters.Service
	taskClient       *tasks.Client
	apiToken         string
	defaultCourseIDs []int64
	logger           *zap.Logger
}

func NewExportController(cfg RouterConfig) *ExportController {
	return &ExportController{
		db:               cfg.Database,
		service:          cfg.ExportService,
		taskClient:       cfg.TaskClient,
		apiToken:         cfg.APIToken,
		defaultCourseIDs: cfg.DefaultCourseIDs,
		logger:           cfg.Logger,
	}
}

// authorized checks the bearer token when one is configured. With no token
// configured the API is open, mirroring a single-user local deployment.
func (ctl *ExportController) authorized(c *gin.Context) bool {
	if ctl.apiToken == "" {
		return true
	}
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token != ctl.apiToken {
		c.IndentedJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return false
	}
	return true
}

func (ctl *ExportController) Trigger(c *gin.Context) {
	if !ctl.authorized(c) {
		return
	}

	var req ExportTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	courseIDs := req.CourseIDs
	if len(courseIDs) == 0 {
		courseIDs = ctl.defaultCourseIDs
	}
	if len(courseIDs) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{
			"error":   "no course ids",
			"message": "Provide course_ids in the request body or set CANVAS_COURSE_IDS",
		})
		return
	}

	if ctl.taskClient != nil {
		if _, err := ctl.taskClient.Add(tasks.CanvasExportTask{CourseIDs: courseIDs}).Save(); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.IndentedJSON(http.StatusAccepted, ExportTriggerResponse{Queued: true, CourseIDs: courseIDs})
		return
	}

	report, err := ctl.service.Run(c.Request.Context(), courseIDs)
	if err != nil {
		ctl.logger.Warn("synchronous export failed", zap.Error(err))
		c.IndentedJSON(http.StatusBadGateway, gin.H{
			"error":  err.Error(),
			"report": report,
		})
		return
	}
	c.IndentedJSON(http.StatusOK, ExportTriggerResponse{Queued: false, CourseIDs: courseIDs, Report: &report})
}

func (ctl *ExportController) List(c *gin.Context) {
	if !ctl.authorized(c) {
		return
	}

	runs, err := ctl.db.ListRuns(defaultRunListLimit)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"runs": runs})
}

func (ctl *ExportController) Get(c *gin.Context) {
	if !ctl.authorized(c) {
		return
	}

	runID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, assets, collections, err := ctl.db.GetRun(uint(runID))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"run":         run,
		"assets":      assets,
		"collections": collections,
	})
}
