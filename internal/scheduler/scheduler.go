// Package scheduler runs the notification sweep on an in-process cron
// schedule, for deployments without an external scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/falconhq/falcon/internal/handler"
	"github.com/falconhq/falcon/internal/sweep"
)

// Scheduler wraps a cron runner around the sweep.
type Scheduler struct {
	cron   *cron.Cron
	runner handler.SweepRunner
	logger *slog.Logger
}

// New creates a Scheduler that invokes the sweep on the given cron spec.
// Standard 5-field cron expressions and @every descriptors are accepted.
func New(spec string, runner handler.SweepRunner, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		logger: logger.With("component", "scheduler"),
	}

	if _, err := s.cron.AddFunc(spec, s.runSweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start begins executing the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("sweep scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish or the
// context to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runSweep() {
	report, err := s.runner.Run(context.Background())
	if err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
		return
	}

	errored := 0
	for _, result := range report.Results {
		if result.Status != sweep.StatusChecked {
			errored++
		}
	}
	s.logger.Info("scheduled sweep finished",
		"run_id", report.RunID,
		"checked", report.Checked,
		"errors", errored,
	)
}
