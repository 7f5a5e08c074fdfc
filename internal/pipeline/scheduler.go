package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Runner is the part of Orchestrator the scheduler needs.
type Runner interface {
	Run(ctx context.Context) (RunReport, error)
}

// Scheduler runs the pipeline immediately and then every Every until ctx ends.
// A failed run is logged and the next tick proceeds.
type Scheduler struct {
	Runner Runner
	Every  time.Duration
	Logger *slog.Logger
}

func NewScheduler(r Runner, every time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{Runner: r, Every: every, Logger: logger}
}

// Start blocks until ctx is cancelled and returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.Every)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("scheduler.stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.Runner.Run(ctx)
	if err != nil {
		s.Logger.Error("scheduler.run.failed", "run_id", report.RunID, "error", err)
		return
	}
	s.Logger.Info("scheduler.run.ok", "run_id", report.RunID, "next_in", s.Every.String())
}
