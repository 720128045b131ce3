package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"economy-fund/internal/period"
)

// TickFunc is invoked once per month with the just-closed period.
type TickFunc func(ctx context.Context, p period.Period) error

// Options tune scheduler behaviour. The run fires on RunDay at RunHour UTC,
// settling the previous calendar month.
type Options struct {
	RunDay       int
	RunHour      int
	StartupDelay time.Duration
}

// Scheduler drives monthly execution of the settlement job.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.RunDay < 1 || opts.RunDay > 28 {
		panic("scheduler run day must be between 1 and 28")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the tick function at each monthly boundary until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	next := s.NextRun(time.Now().UTC())
	for {
		timer := time.NewTimer(time.Until(next))
		s.logger.Debug().Time("next_run", next).Msg("waiting for next settlement run")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}

		p := period.Previous(next)
		s.logger.Info().Str("period", p.Month).Time("run_at", next).Msg("executing monthly settlement")

		if err := tick(ctx, p); err != nil {
			s.logger.Error().Err(err).Str("period", p.Month).Msg("settlement run failed")
		}

		next = s.NextRun(next.Add(time.Minute))
	}
}

// NextRun returns the first RunDay/RunHour boundary strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), s.opts.RunDay, s.opts.RunHour, 0, 0, 0, time.UTC)
	if !candidate.After(now) {
		candidate = time.Date(now.Year(), now.Month()+1, s.opts.RunDay, s.opts.RunHour, 0, 0, 0, time.UTC)
	}
	return candidate
}
