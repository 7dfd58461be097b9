package exporters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/entities"
)

type fakeSource struct {
	result *entities.ExportResult
	err    error
}

func (f *fakeSource) Parse(context.Context, []int64) (*entities.ExportResult, error) {
	return f.result, f.err
}

type fakeSink struct {
	summary  ExportSummary
	err      error
	received *entities.ExportResult
}

func (f *fakeSink) Export(_ context.Context, _ uint, result *entities.ExportResult) (ExportSummary, error) {
	f.received = result
	return f.summary, f.err
}

type fakeRuns struct {
	startErr error

	finishedStatus entities.RunStatus
	finishedErr    error
	finished       bool
}

func (f *fakeRuns) StartRun(string) (uint, error) {
	return 17, f.startErr
}

func (f *fakeRuns) FinishRun(_ uint, status entities.RunStatus, _ ExportSummary, runErr error) error {
	f.finished = true
	f.finishedStatus = status
	f.finishedErr = runErr
	return nil
}

func sampleResult(assets, collections int) *entities.ExportResult {
	result := &entities.ExportResult{}
	for i := 0; i < assets; i++ {
		result.Assets = append(result.Assets, entities.Asset{UID: "asset"})
	}
	for i := 0; i < collections; i++ {
		result.Collections = append(result.Collections, entities.Collection{UID: "collection"})
	}
	return result
}

func TestServiceRun_Completed(t *testing.T) {
	sink := &fakeSink{summary: ExportSummary{AssetsSaved: 3, CollectionsSaved: 1}}
	runs := &fakeRuns{}
	svc := NewService(&fakeSource{result: sampleResult(3, 1)}, sink, runs, "canvas", zap.NewNop())

	report, err := svc.Run(context.Background(), []int64{5013})
	require.NoError(t, err)

	assert.Equal(t, uint(17), report.RunID)
	assert.Equal(t, entities.RunStatusCompleted, report.Status)
	assert.Equal(t, 3, report.Assets)
	assert.Equal(t, 1, report.Collections)
	assert.True(t, runs.finished)
	assert.Equal(t, entities.RunStatusCompleted, runs.finishedStatus)
	assert.NotNil(t, sink.received)
}

func TestServiceRun_PartialResultIsPersisted(t *testing.T) {
	parseErr := errors.New("course 7: token expired")
	sink := &fakeSink{summary: ExportSummary{AssetsSaved: 3, CollectionsSaved: 1}}
	runs := &fakeRuns{}
	svc := NewService(&fakeSource{result: sampleResult(3, 1), err: parseErr}, sink, runs, "canvas", zap.NewNop())

	report, err := svc.Run(context.Background(), []int64{5013, 7})
	require.Error(t, err)
	assert.ErrorIs(t, err, parseErr)

	assert.Equal(t, entities.RunStatusPartial, report.Status)
	assert.Equal(t, 3, report.Assets)
	assert.NotNil(t, sink.received, "partial result still reaches the sink")
	assert.Equal(t, entities.RunStatusPartial, runs.finishedStatus)
	assert.ErrorIs(t, runs.finishedErr, parseErr)
}

func TestServiceRun_NilResultFails(t *testing.T) {
	parseErr := errors.New("no course ids given")
	sink := &fakeSink{}
	runs := &fakeRuns{}
	svc := NewService(&fakeSource{err: parseErr}, sink, runs, "canvas", zap.NewNop())

	report, err := svc.Run(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, entities.RunStatusFailed, report.Status)
	assert.Nil(t, sink.received, "nothing is exported without a result")
	assert.Equal(t, entities.RunStatusFailed, runs.finishedStatus)
}

func TestServiceRun_SinkFailureWithNothingSavedFails(t *testing.T) {
	sinkErr := errors.New("database is locked")
	sink := &fakeSink{err: sinkErr}
	runs := &fakeRuns{}
	svc := NewService(&fakeSource{result: sampleResult(2, 1)}, sink, runs, "canvas", zap.NewNop())

	report, err := svc.Run(context.Background(), []int64{5013})
	require.Error(t, err)
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, entities.RunStatusFailed, report.Status)
}

func TestServiceRun_StartRunFailure(t *testing.T) {
	runs := &fakeRuns{startErr: errors.New("disk full")}
	svc := NewService(&fakeSource{}, &fakeSink{}, runs, "canvas", zap.NewNop())

	_, err := svc.Run(context.Background(), []int64{5013})
	require.Error(t, err)
	assert.False(t, runs.finished)
}
