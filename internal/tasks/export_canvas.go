package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/exporters"
)

// CanvasExportTask runs one full export pass over the given courses.
type CanvasExportTask struct {
	CourseIDs []int64 `json:"course_ids"`
}

// Config returns the queue configuration for export tasks.
func (t CanvasExportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "canvas_export",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     15 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CanvasExportProcessor creates a processor function for CanvasExportTask.
func CanvasExportProcessor(svc *exporters.Service, logger *zap.Logger) backlite.QueueProcessor[CanvasExportTask] {
	return func(ctx context.Context, task CanvasExportTask) error {
		if svc == nil {
			return fmt.Errorf("export service not configured")
		}

		report, err := svc.Run(ctx, task.CourseIDs)
		if err != nil {
			return fmt.Errorf("canvas export run %d: %w", report.RunID, err)
		}

		logger.Info("background export finished",
			zap.Uint("run_id", report.RunID),
			zap.Int("assets", report.Assets),
			zap.Int("collections", report.Collections))
		return nil
	}
}

// NewCanvasExportQueue creates a backlite queue for export tasks.
func NewCanvasExportQueue(svc *exporters.Service, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(CanvasExportProcessor(svc, logger))
}
