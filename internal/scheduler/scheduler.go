package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/quietpetrel/stratowatch/internal/pipeline"
)

// Scheduler periodically runs refresh cycles. Singleton mode guarantees
// cycles never overlap: a run that outlasts the interval simply delays the
// next one, so no two aggregations ever share state.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refresher  *pipeline.Refresher
	interval   time.Duration
	jobTimeout time.Duration
	logger     *slog.Logger
}

// New creates a Scheduler. jobTimeout bounds a whole refresh cycle and
// should exceed the worst case of 24 sequential hourly fetches plus the
// aircraft retry budget.
func New(refresher *pipeline.Refresher, interval, jobTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		refresher:  refresher,
		interval:   interval,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start schedules the periodic refresh and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		if err := s.refresher.Refresh(ctx); err != nil {
			if errors.Is(err, pipeline.ErrRefreshInFlight) {
				s.logger.Info("scheduled refresh skipped, one already running")
				return
			}
			s.logger.Error("scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
