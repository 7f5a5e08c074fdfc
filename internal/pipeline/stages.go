package pipeline

import (
	"context"
	"log/slog"
	"slices"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/extract"
	"github.com/joseph-ayodele/jobs-etl/internal/load"
	"github.com/joseph-ayodele/jobs-etl/internal/repository"
	"github.com/joseph-ayodele/jobs-etl/internal/transform"
)

// Stage is one named unit of work the orchestrator runs and retries.
type Stage interface {
	Name() constants.Stage
	Run(ctx context.Context) error
}

type funcStage struct {
	name constants.Stage
	fn   func(ctx context.Context) error
}

// NewStage adapts fn to a Stage.
func NewStage(name constants.Stage, fn func(ctx context.Context) error) Stage {
	return &funcStage{name: name, fn: fn}
}

func (s *funcStage) Name() constants.Stage         { return s.name }
func (s *funcStage) Run(ctx context.Context) error { return s.fn(ctx) }

func NewSchemaInitStage(schema repository.SchemaRepository) Stage {
	return NewStage(constants.StageSchemaInit, schema.EnsureSchema)
}

// NewExtractStage opens the source on every attempt, so a file replaced
// between retries is picked up.
func NewExtractStage(e *extract.Extractor, path, column, sheet string) Stage {
	return NewStage(constants.StageExtract, func(ctx context.Context) error {
		src, err := extract.OpenSource(path, column, sheet)
		if err != nil {
			return err
		}
		_, err = e.Run(ctx, src)
		return err
	})
}

func NewTransformStage(t *transform.Transformer) Stage {
	return NewStage(constants.StageTransform, func(ctx context.Context) error {
		_, _, err := t.Run(ctx)
		return err
	})
}

func NewLoadStage(l *load.Loader) Stage {
	return NewStage(constants.StageLoad, func(ctx context.Context) error {
		_, _, err := l.Run(ctx)
		return err
	})
}

// VerifyStage lists the tables in the store. It is observational: expected
// tables that are missing are reported as a warning, never as a failure.
type VerifyStage struct {
	Schema   repository.SchemaRepository
	Expected []string
	Logger   *slog.Logger
}

func NewVerifyStage(schema repository.SchemaRepository, logger *slog.Logger) *VerifyStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyStage{Schema: schema, Expected: constants.Tables, Logger: logger}
}

func (v *VerifyStage) Name() constants.Stage { return constants.StageVerify }

func (v *VerifyStage) Run(ctx context.Context) error {
	_, err := v.Check(ctx)
	return err
}

// Check returns the expected tables that are missing.
func (v *VerifyStage) Check(ctx context.Context) ([]string, error) {
	logger := common.LoggerFromContext(ctx, v.Logger)

	tables, err := v.Schema.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("verify.tables", "tables", tables)

	var missing []string
	for _, want := range v.Expected {
		if !slices.Contains(tables, want) {
			missing = append(missing, want)
			continue
		}
		if n, err := v.Schema.CountRows(ctx, want); err == nil {
			logger.Debug("verify.table.rows", "table", want, "rows", n)
		}
	}
	if len(missing) > 0 {
		logger.Warn("verify.tables.missing", "missing", missing)
	}
	return missing, nil
}
