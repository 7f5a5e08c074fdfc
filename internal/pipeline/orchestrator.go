package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
)

// RetryPolicy bounds how often a failing stage is attempted: 1 + Retries times,
// Delay apart.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
}

type StageReport struct {
	Stage    constants.Stage
	Status   constants.StageStatus
	Attempts int
	Duration time.Duration
	Err      error
}

type RunReport struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Stages   []StageReport
}

// Failed returns the report of the first failed stage, if any.
func (r RunReport) Failed() (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Status == constants.StageStatusFailed {
			return s, true
		}
	}
	return StageReport{}, false
}

// Orchestrator runs its stages in order, retrying each per Policy. A stage
// that exhausts its retries fails the run and later stages are skipped.
type Orchestrator struct {
	Stages []Stage
	Policy RetryPolicy
	Logger *slog.Logger
}

func NewOrchestrator(stages []Stage, policy RetryPolicy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{Stages: stages, Policy: policy, Logger: logger}
}

func (o *Orchestrator) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), Started: time.Now()}
	ctx = common.WithRunID(ctx, report.RunID)
	logger := o.Logger.With("run_id", report.RunID)
	logger.Info("pipeline.run.start", "stages", len(o.Stages))

	var runErr error
	for _, s := range o.Stages {
		if runErr != nil {
			report.Stages = append(report.Stages, StageReport{Stage: s.Name(), Status: constants.StageStatusSkipped})
			continue
		}
		sr := o.runStage(ctx, logger, s)
		report.Stages = append(report.Stages, sr)
		if sr.Err != nil {
			runErr = common.NewAppError("STAGE_FAILED", fmt.Sprintf("stage %s failed after %d attempt(s)", s.Name(), sr.Attempts), fmt.Errorf("%w: %w", common.ErrStageFailed, sr.Err))
		}
	}

	report.Duration = time.Since(report.Started)
	if runErr != nil {
		logger.Error("pipeline.run.failed", "elapsed_ms", report.Duration.Milliseconds(), "error", runErr)
		return report, runErr
	}
	logger.Info("pipeline.run.ok", "elapsed_ms", report.Duration.Milliseconds())
	return report, nil
}

// RunStage runs a single stage by name with the same retry policy.
func (o *Orchestrator) RunStage(ctx context.Context, name constants.Stage) (StageReport, error) {
	for _, s := range o.Stages {
		if s.Name() != name {
			continue
		}
		runID := uuid.NewString()
		ctx = common.WithRunID(ctx, runID)
		sr := o.runStage(ctx, o.Logger.With("run_id", runID), s)
		if sr.Err != nil {
			return sr, common.NewAppError("STAGE_FAILED", fmt.Sprintf("stage %s failed after %d attempt(s)", name, sr.Attempts), fmt.Errorf("%w: %w", common.ErrStageFailed, sr.Err))
		}
		return sr, nil
	}
	return StageReport{}, common.NewAppError("UNKNOWN_STAGE", fmt.Sprintf("no stage named %q", name), common.ErrNotFound)
}

func (o *Orchestrator) runStage(ctx context.Context, logger *slog.Logger, s Stage) StageReport {
	start := time.Now()
	sr := StageReport{Stage: s.Name()}
	logger = logger.With("stage", string(s.Name()))
	ctx = common.WithLogger(common.WithStage(ctx, string(s.Name())), logger)

	op := func() error {
		sr.Attempts++
		err := s.Run(ctx)
		if err == nil {
			return nil
		}
		// invalid input and cancellation will not improve on retry
		if ctx.Err() != nil || errors.Is(err, common.ErrInvalidInput) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("pipeline.stage.retry", "attempt", sr.Attempts, "next_in", next.String(), "error", err)
	}

	retries := max(o.Policy.Retries, 0)
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(o.Policy.Delay), uint64(retries)), ctx)
	err := backoff.RetryNotify(op, b, notify)

	sr.Duration = time.Since(start)
	if err != nil {
		sr.Status = constants.StageStatusFailed
		sr.Err = err
		logger.Error("pipeline.stage.failed", "attempts", sr.Attempts, "elapsed_ms", sr.Duration.Milliseconds(), "error", err)
		if stack := common.StackOf(err); stack != "" {
			logger.Debug("pipeline.stage.stack", "stack", stack)
		}
		return sr
	}
	sr.Status = constants.StageStatusSucceeded
	logger.Info("pipeline.stage.ok", "attempts", sr.Attempts, "elapsed_ms", sr.Duration.Milliseconds())
	return sr
}
