// Package scheduler drives periodic Canvas exports on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/contentgrid/canvas-export/internal/exporters"
)

// syncTimeout bounds one scheduled export pass.
const syncTimeout = 15 * time.Minute

// CanvasSyncScheduler manages periodic export runs against the Canvas API.
type CanvasSyncScheduler struct {
	service   *exporters.Service
	courseIDs []int64
	schedule  string
	logger    *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewCanvasSyncScheduler creates a scheduler that exports the given courses
// on the given cron schedule.
func NewCanvasSyncScheduler(service *exporters.Service, courseIDs []int64, schedule string, logger *zap.Logger) *CanvasSyncScheduler {
	return &CanvasSyncScheduler{
		service:   service,
		courseIDs: courseIDs,
		schedule:  schedule,
		logger:    logger,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *CanvasSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if len(s.courseIDs) == 0 {
		s.logger.Info("canvas sync scheduler: no course ids configured, skipping")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("canvas sync scheduler started",
		zap.String("schedule", s.schedule),
		zap.Int("courses", len(s.courseIDs)))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sync to finish.
func (s *CanvasSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	s.logger.Info("canvas sync scheduler stopped")
}

// RunNow triggers an immediate sync.
func (s *CanvasSyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active.
func (s *CanvasSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sync will occur.
func (s *CanvasSyncScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs one export pass. Overlapping runs are skipped: a single
// slow pass must not pile up concurrent crawls of the same account.
func (s *CanvasSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.logger.Info("canvas sync skipped, previous run still in progress")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	startTime := time.Now()
	s.logger.Info("canvas sync starting", zap.Int64s("course_ids", s.courseIDs))

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	report, err := s.service.Run(ctx, s.courseIDs)
	if err != nil {
		s.logger.Error("canvas sync failed",
			zap.Uint("run_id", report.RunID),
			zap.String("status", string(report.Status)),
			zap.Error(err))
		return
	}

	s.logger.Info("canvas sync finished",
		zap.Uint("run_id", report.RunID),
		zap.Int("assets", report.Assets),
		zap.Int("collections", report.Collections),
		zap.Duration("duration", time.Since(startTime).Round(time.Millisecond)))
}
