// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/logging"
)

// Runner is a retention pass. *Job implements it.
type Runner interface {
	Run(ctx context.Context) *Report
}

// Scheduler runs a Runner once a day at a fixed local time. It implements
// suture.Service.
type Scheduler struct {
	job          Runner
	hour, minute int
	runOnStartup bool

	now func() time.Time
}

// NewScheduler returns a Scheduler for cfg.RunAt ("HH:MM").
func NewScheduler(job Runner, cfg *config.RetentionConfig) (*Scheduler, error) {
	runAt := cfg.RunAt
	if runAt == "" {
		runAt = "03:00"
	}
	hour, minute, err := config.ParseRunAt(runAt)
	if err != nil {
		return nil, fmt.Errorf("retention.run_at: %w", err)
	}
	return &Scheduler{
		job:          job,
		hour:         hour,
		minute:       minute,
		runOnStartup: cfg.RunOnStartup,
		now:          time.Now,
	}, nil
}

// NextRun returns the first scheduled time strictly after now, in now's location.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, s.hour, s.minute, 0, 0, now.Location())
	}
	return next
}

// Serve runs the schedule until ctx is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	if s.runOnStartup {
		logging.Info().Msg("Running retention job on startup")
		s.job.Run(ctx)
	}

	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			s.job.Run(ctx)

			timer.Reset(s.untilNext())
		}
	}
}

func (s *Scheduler) untilNext() time.Duration {
	now := s.now()
	next := s.NextRun(now)
	logging.Info().Time("next_run", next).Msg("Retention run scheduled")
	return next.Sub(now)
}

// String implements fmt.Stringer for suture logging.
func (s *Scheduler) String() string {
	return "retention-scheduler"
}
