package exporters

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/entities"
)

// CourseSource produces an export result for a list of course ids. On
// failure it may still return the partial result committed so far.
type CourseSource interface {
	Parse(ctx context.Context, courseIDs []int64) (*entities.ExportResult, error)
}

// RunReport summarizes one finished (or aborted) export run.
type RunReport struct {
	RunID       uint               `json:"run_id"`
	Status      entities.RunStatus `json:"status"`
	Assets      int                `json:"assets"`
	Collections int                `json:"collections"`
}

// Service drives a full export run: record the run, parse the courses,
// persist whatever was committed, and finalize the run record. A failed
// parse still persists the assets/collections of courses that completed
// before the failure, so downstream consumers can pick up partial results.
type Service struct {
	source CourseSource
	sink   ExportSink
	runs   RunRecorder
	name   string // content source name recorded on runs
	logger *zap.Logger
}

// NewService wires an export service for one content source.
func NewService(source CourseSource, sink ExportSink, runs RunRecorder, sourceName string, logger *zap.Logger) *Service {
	return &Service{
		source: source,
		sink:   sink,
		runs:   runs,
		name:   sourceName,
		logger: logger,
	}
}

// Run executes one export pass over the given courses. The returned report
// is valid even when err is non-nil; its status tells whether the run
// failed outright, committed a partial result, or completed.
func (s *Service) Run(ctx context.Context, courseIDs []int64) (RunReport, error) {
	runID, err := s.runs.StartRun(s.name)
	if err != nil {
		return RunReport{}, fmt.Errorf("start export run: %w", err)
	}

	report := RunReport{RunID: runID}

	result, parseErr := s.source.Parse(ctx, courseIDs)
	if result == nil {
		report.Status = entities.RunStatusFailed
		if finishErr := s.runs.FinishRun(runID, report.Status, ExportSummary{}, parseErr); finishErr != nil {
			return report, errors.Join(parseErr, finishErr)
		}
		return report, parseErr
	}

	summary, sinkErr := s.sink.Export(ctx, runID, result)
	report.Assets = summary.AssetsSaved
	report.Collections = summary.CollectionsSaved

	runErr := errors.Join(parseErr, sinkErr)
	switch {
	case runErr == nil:
		report.Status = entities.RunStatusCompleted
	case summary.CollectionsSaved > 0:
		report.Status = entities.RunStatusPartial
	default:
		report.Status = entities.RunStatusFailed
	}

	if finishErr := s.runs.FinishRun(runID, report.Status, summary, runErr); finishErr != nil {
		runErr = errors.Join(runErr, finishErr)
	}

	if runErr != nil {
		s.logger.Warn("export run did not complete",
			zap.Uint("run_id", runID),
			zap.String("status", string(report.Status)),
			zap.Error(runErr))
		return report, runErr
	}

	s.logger.Info("export run complete",
		zap.Uint("run_id", runID),
		zap.Int("assets", report.Assets),
		zap.Int("collections", report.Collections))
	return report, nil
}
