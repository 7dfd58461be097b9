// Package database persists export results and run records in SQLite via
// gorm. It is the concrete ExportSink and RunRecorder used by the service.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/contentgrid/canvas-export/internal/entities"
	"github.com/contentgrid/canvas-export/internal/exporters"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Asset{},
		&entities.Collection{},
		&entities.ExportRun{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRun records a new export run in the running state.
func (d *Database) StartRun(source string) (uint, error) {
	run := entities.ExportRun{
		ContentSource: source,
		Status:        entities.RunStatusRunning,
		StartedAt:     time.Now(),
	}
	if err := d.DB.Create(&run).Error; err != nil {
		return 0, fmt.Errorf("failed to create export run: %w", err)
	}
	return run.ID, nil
}

// FinishRun finalizes a run record with its outcome.
func (d *Database) FinishRun(runID uint, status entities.RunStatus, summary exporters.ExportSummary, runErr error) error {
	now := time.Now()
	updates := map[string]any{
		"status":       status,
		"assets":       summary.AssetsSaved,
		"collections":  summary.CollectionsSaved,
		"completed_at": &now,
	}
	if runErr != nil {
		updates["error"] = runErr.Error()
	}
	err := d.DB.Model(&entities.ExportRun{}).Where("id = ?", runID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to finalize export run %d: %w", runID, err)
	}
	return nil
}

// Export stores every asset and collection of the result under the given
// run in one transaction, so a sink failure never leaves a half-written
// export behind.
func (d *Database) Export(ctx context.Context, runID uint, result *entities.ExportResult) (exporters.ExportSummary, error) {
	if len(result.Assets) == 0 && len(result.Collections) == 0 {
		return exporters.ExportSummary{}, nil
	}

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range result.Assets {
			result.Assets[i].ExportRunID = runID
		}
		for i := range result.Collections {
			result.Collections[i].ExportRunID = runID
		}
		if len(result.Assets) > 0 {
			if err := tx.Create(&result.Assets).Error; err != nil {
				return fmt.Errorf("save assets: %w", err)
			}
		}
		if len(result.Collections) > 0 {
			if err := tx.Create(&result.Collections).Error; err != nil {
				return fmt.Errorf("save collections: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return exporters.ExportSummary{}, fmt.Errorf("failed to save export: %w", err)
	}

	return exporters.ExportSummary{
		AssetsSaved:      len(result.Assets),
		CollectionsSaved: len(result.Collections),
	}, nil
}

// ListRuns returns the most recent export runs, newest first.
func (d *Database) ListRuns(limit int) ([]entities.ExportRun, error) {
	var runs []entities.ExportRun
	err := d.DB.Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list export runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one export run with its stored assets and collections.
func (d *Database) GetRun(runID uint) (*entities.ExportRun, []entities.Asset, []entities.Collection, error) {
	var run entities.ExportRun
	if err := d.DB.First(&run, runID).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load export run %d: %w", runID, err)
	}

	var assets []entities.Asset
	if err := d.DB.Where("export_run_id = ?", runID).Order("id").Find(&assets).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load assets of run %d: %w", runID, err)
	}

	var collections []entities.Collection
	if err := d.DB.Where("export_run_id = ?", runID).Order("id").Find(&collections).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load collections of run %d: %w", runID, err)
	}

	return &run, assets, collections, nil
}
