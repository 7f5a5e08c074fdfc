package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/extract"
	"github.com/joseph-ayodele/jobs-etl/internal/load"
	"github.com/joseph-ayodele/jobs-etl/internal/pipeline"
	repo "github.com/joseph-ayodele/jobs-etl/internal/repository"
	"github.com/joseph-ayodele/jobs-etl/internal/staging"
	"github.com/joseph-ayodele/jobs-etl/internal/transform"
)

// app carries the resolved configuration and the lazily opened store.
type app struct {
	cfg    *common.Config
	logger *slog.Logger

	drv  *entsql.Driver
	pool *pgxpool.Pool
}

func (a *app) store(ctx context.Context) (*entsql.Driver, error) {
	if a.drv != nil {
		return a.drv, nil
	}
	db := a.cfg.Database
	drv, pool, err := repo.Open(ctx, repo.Config{
		Driver:           db.Driver,
		DSN:              db.DSN,
		MaxConns:         db.MaxConns,
		MinConns:         db.MinConns,
		MaxConnLifetime:  db.MaxConnLifetime,
		MaxConnIdleTime:  db.MaxConnIdleTime,
		DialTimeout:      db.DialTimeout,
		StatementTimeout: db.StatementTimeout,
	}, a.logger)
	if err != nil {
		return nil, common.NewAppError("DB_OPEN_FAILED", "failed to open database", fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}
	a.drv, a.pool = drv, pool
	return drv, nil
}

func (a *app) close() {
	if a.drv != nil {
		repo.Close(a.drv, a.pool, a.logger)
		a.drv, a.pool = nil, nil
	}
}

func (a *app) rejecter() *staging.Rejecter {
	return staging.NewRejecter(a.cfg.Staging.RejectPolicy, a.cfg.Staging.QuarantineDir, a.logger)
}

// stage builds one pipeline stage, opening the store only for stages that use it.
func (a *app) stage(ctx context.Context, name constants.Stage) (pipeline.Stage, error) {
	st := a.cfg.Staging
	switch name {
	case constants.StageExtract:
		src := a.cfg.Source
		return pipeline.NewExtractStage(extract.NewExtractor(st.ExtractedDir, a.logger), src.Path, src.Column, src.Sheet), nil
	case constants.StageTransform:
		t := transform.NewTransformer(st.ExtractedDir, st.TransformedDir, filepath.Base(a.cfg.Source.Path), a.rejecter(), a.logger)
		return pipeline.NewTransformStage(t), nil
	}

	drv, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	switch name {
	case constants.StageSchemaInit:
		return pipeline.NewSchemaInitStage(repo.NewSchemaRepository(drv, a.logger)), nil
	case constants.StageVerify:
		return pipeline.NewVerifyStage(repo.NewSchemaRepository(drv, a.logger), a.logger), nil
	case constants.StageLoad:
		l := load.NewLoader(st.TransformedDir, repo.NewJobRepository(drv, a.logger), a.rejecter(), a.logger)
		return pipeline.NewLoadStage(l), nil
	default:
		return nil, common.NewAppError("UNKNOWN_STAGE", fmt.Sprintf("no stage named %q", name), common.ErrNotFound)
	}
}

func (a *app) orchestrator(ctx context.Context, names ...constants.Stage) (*pipeline.Orchestrator, error) {
	stages := make([]pipeline.Stage, 0, len(names))
	for _, name := range names {
		s, err := a.stage(ctx, name)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	policy := pipeline.RetryPolicy{Retries: a.cfg.Pipeline.Retries, Delay: a.cfg.Pipeline.RetryDelay}
	return pipeline.NewOrchestrator(stages, policy, a.logger), nil
}
