// Package scheduler runs the portal's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger removes events that are over. Satisfied by port.EventStore.
type Purger interface {
	DeleteOldEvents(ctx context.Context) error
}

// Scheduler wraps a cron runner; overlapping runs of a job are skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// AddEventCleanup schedules the old-events purge on spec (standard 5-field cron).
func (s *Scheduler) AddEventCleanup(spec string, purger Purger) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunEventCleanup(purger) }); err != nil {
		return fmt.Errorf("schedule event cleanup %q: %w", spec, err)
	}
	s.logger.Info("event cleanup scheduled", zap.String("schedule", spec))
	return nil
}

// RunEventCleanup runs one purge; failures are logged.
func (s *Scheduler) RunEventCleanup(purger Purger) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := purger.DeleteOldEvents(ctx); err != nil {
		s.logger.Warn("event cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("event cleanup done", zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the runner and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
