// Package scheduler implements a tick-based periodic collection scheduler.
// It runs the pipeline immediately and then once per interval until the
// context is cancelled. Each run's outcome is logged and handed to an
// optional callback; a failed run never stops the loop.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/sysinv/internal/pipeline"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) pipeline.Outcome
}

// Scheduler manages periodic pipeline runs.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger

	onOutcome func(context.Context, pipeline.Outcome)
}

// New creates a new Scheduler running runner every interval.
func New(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// OnOutcome sets the callback invoked after every run, e.g. for retention
// pruning or metrics export.
func (s *Scheduler) OnOutcome(fn func(context.Context, pipeline.Outcome)) {
	s.onOutcome = fn
}

// Start runs the pipeline immediately and then on every tick. It blocks
// until the context is cancelled and returns the number of runs performed.
func (s *Scheduler) Start(ctx context.Context) int {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	runs := 0
	s.runOnce(ctx)
	runs++

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped", zap.Int("runs", runs))
			return runs
		case <-ticker.C:
			// A tick and cancellation can be ready together.
			if ctx.Err() != nil {
				continue
			}
			s.runOnce(ctx)
			runs++
		}
	}
}

// runOnce executes a single run and reports its outcome.
func (s *Scheduler) runOnce(ctx context.Context) {
	out := s.runner.Run(ctx)

	if out.Success() {
		s.logger.Info("Scheduled run completed",
			zap.String("run_id", out.RunID),
			zap.Time("next", time.Now().Add(s.interval)))
	} else {
		s.logger.Warn("Scheduled run failed",
			zap.String("run_id", out.RunID),
			zap.String("cause", out.Cause()))
	}

	if s.onOutcome != nil {
		s.onOutcome(ctx, out)
	}
}
