package exporters

import (
	"context"

	"github.com/contentgrid/canvas-export/internal/entities"
)

// ExportSink persists one export result under an export run.
type ExportSink interface {
	Export(ctx context.Context, runID uint, result *entities.ExportResult) (ExportSummary, error)
}

// RunRecorder tracks export run lifecycle for auditing and the API listing.
type RunRecorder interface {
	StartRun(source string) (uint, error)
	FinishRun(runID uint, status entities.RunStatus, summary ExportSummary, runErr error) error
}

// ExportSummary reports what a sink actually stored.
type ExportSummary struct {
	AssetsSaved      int `json:"assets_saved"`
	CollectionsSaved int `json:"collections_saved"`
}
