package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentgrid/canvas-export/internal/entities"
	"github.com/contentgrid/canvas-export/internal/exporters"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := newTestDatabase(t)

	runID, err := db.StartRun("canvas")
	require.NoError(t, err)
	require.NotZero(t, runID)

	summary := exporters.ExportSummary{AssetsSaved: 3, CollectionsSaved: 1}
	require.NoError(t, db.FinishRun(runID, entities.RunStatusCompleted, summary, nil))

	run, _, _, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "canvas", run.ContentSource)
	assert.Equal(t, entities.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.Assets)
	assert.Equal(t, 1, run.Collections)
	assert.NotNil(t, run.CompletedAt)
	assert.Empty(t, run.Error)
}

func TestFinishRun_RecordsError(t *testing.T) {
	db := newTestDatabase(t)

	runID, err := db.StartRun("canvas")
	require.NoError(t, err)

	runErr := errors.New("course 7: token expired")
	require.NoError(t, db.FinishRun(runID, entities.RunStatusPartial, exporters.ExportSummary{}, runErr))

	run, _, _, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusPartial, run.Status)
	assert.Equal(t, "course 7: token expired", run.Error)
}

func TestExport_RoundTrip(t *testing.T) {
	db := newTestDatabase(t)

	runID, err := db.StartRun("canvas")
	require.NoError(t, err)

	published := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &entities.ExportResult{
		Assets: []entities.Asset{
			{
				UID:            "asset-uid-1",
				CanvasID:       42,
				CitationURL:    "https://canvas.example.edu/courses/5013/pages/week-1",
				ContentCreator: "Prof. Chen",
				ContentType:    entities.ContentTypeHTML,
				Title:          "Week 1",
				Description:    "Week 1",
				PublishDate:    &published,
				ContentEmbed: []entities.ContentEmbed{
					{Data: "https://canvas.example.edu/api/v1/courses/5013/pages/42", IsDefault: true, Protocol: entities.ProtocolCanvasPage},
					{Data: "<p>A</p>", Protocol: entities.ProtocolHTML},
				},
				SearchText:      "A",
				OriginalContent: "<p>A</p>",
			},
			{
				UID:         "asset-uid-2",
				CanvasID:    91,
				ContentType: entities.ContentTypeProblem,
				Graded:      true,
				Title:       "Midterm",
			},
		},
		Collections: []entities.Collection{
			{
				UID:               "collection-uid-1",
				CanvasID:          5013,
				ContentType:       entities.ContentTypeCourse,
				Title:             "Intro to Testing",
				PublishDate:       published,
				AssetUIDs:         []string{"asset-uid-1", "asset-uid-2"},
				CollectionUIDs:    []string{},
				ParentCollections: []string{},
			},
		},
	}

	summary, err := db.Export(context.Background(), runID, result)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AssetsSaved)
	assert.Equal(t, 1, summary.CollectionsSaved)

	_, assets, collections, err := db.GetRun(runID)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Len(t, collections, 1)

	assert.Equal(t, "asset-uid-1", assets[0].UID)
	assert.Equal(t, runID, assets[0].ExportRunID)
	require.Len(t, assets[0].ContentEmbed, 2, "embeds survive the json serializer")
	assert.True(t, assets[0].ContentEmbed[0].IsDefault)
	assert.Equal(t, entities.ProtocolHTML, assets[0].ContentEmbed[1].Protocol)
	assert.True(t, assets[1].Graded)

	assert.Equal(t, []string{"asset-uid-1", "asset-uid-2"}, collections[0].AssetUIDs)
	assert.Equal(t, runID, collections[0].ExportRunID)
}

func TestExport_EmptyResultIsNoop(t *testing.T) {
	db := newTestDatabase(t)

	runID, err := db.StartRun("canvas")
	require.NoError(t, err)

	summary, err := db.Export(context.Background(), runID, &entities.ExportResult{})
	require.NoError(t, err)
	assert.Zero(t, summary.AssetsSaved)
	assert.Zero(t, summary.CollectionsSaved)
}

func TestExport_DuplicateUIDRollsBack(t *testing.T) {
	db := newTestDatabase(t)

	runID, err := db.StartRun("canvas")
	require.NoError(t, err)

	result := &entities.ExportResult{
		Assets: []entities.Asset{
			{UID: "dup", Title: "First"},
			{UID: "dup", Title: "Second"},
		},
		Collections: []entities.Collection{{UID: "c1"}},
	}

	_, err = db.Export(context.Background(), runID, result)
	require.Error(t, err)

	_, assets, collections, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Empty(t, assets, "transaction rolled back completely")
	assert.Empty(t, collections)
}

func TestListRuns_NewestFirst(t *testing.T) {
	db := newTestDatabase(t)

	first, err := db.StartRun("canvas")
	require.NoError(t, err)
	second, err := db.StartRun("canvas")
	require.NoError(t, err)

	// Separate the started_at timestamps so ordering is deterministic.
	later := time.Now().Add(time.Minute)
	require.NoError(t, db.DB.Model(&entities.ExportRun{}).
		Where("id = ?", second).Update("started_at", later).Error)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	limited, err := db.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second, limited[0].ID)
}
