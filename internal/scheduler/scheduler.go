// Package scheduler runs the composite cache cleanup on a fixed period,
// as a drop-in alternative to the probabilistic per-request trigger.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/mizukake/tenki/internal/cache"
	"github.com/rs/zerolog/log"
)

// CleanupRunner is the piece of the cache service the scheduler drives.
type CleanupRunner interface {
	Cleanup(ctx context.Context) cache.CleanupResult
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    CleanupRunner
	interval  time.Duration
}

func New(runner CleanupRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
	}
}

// Start schedules the periodic cleanup job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		log.Info().Msg("scheduler: no cleanup interval configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result := s.runner.Cleanup(ctx)
		log.Info().
			Int("expired", result.Expired).
			Int("old_date", result.OldDate).
			Int("size_limit", result.SizeLimit).
			Int("total", result.Total).
			Msg("scheduler: cache cleanup completed")
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
