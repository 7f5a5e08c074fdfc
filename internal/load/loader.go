package load

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/entity"
	"github.com/joseph-ayodele/jobs-etl/internal/repository"
	"github.com/joseph-ayodele/jobs-etl/internal/staging"
	"github.com/joseph-ayodele/jobs-etl/internal/transform"
)

// Loader inserts every transformed record in Dir into the store.
type Loader struct {
	Dir      string
	Jobs     repository.JobRepository
	Rejecter *staging.Rejecter
	Logger   *slog.Logger
}

func NewLoader(dir string, jobs repository.JobRepository, rejecter *staging.Rejecter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if rejecter == nil {
		rejecter = staging.NewRejecter(constants.RejectDrop, "", logger)
	}
	return &Loader{Dir: dir, Jobs: jobs, Rejecter: rejecter, Logger: logger}
}

// Run loads files in natural row order. Empty files are skipped and invalid
// records rejected; a store error aborts the pass after rolling back that record.
func (l *Loader) Run(ctx context.Context) ([]staging.FileResult, staging.DirStats, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, l.Logger)

	var (
		results []staging.FileResult
		stats   staging.DirStats
	)
	files, err := staging.ListFiles(l.Dir)
	if err != nil {
		return nil, stats, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}
		res, err := l.loadFile(ctx, logger, path)
		if err != nil {
			logger.Error("load.file.failed", "file", path, "error", err)
			return results, stats, err
		}
		results = append(results, res)
		stats.Add(res)
	}

	logger.Info("load.ok",
		"scanned", stats.Scanned,
		"loaded", stats.Succeeded,
		"skipped", stats.Skipped,
		"rejected", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, stats, nil
}

func (l *Loader) loadFile(ctx context.Context, logger *slog.Logger, path string) (staging.FileResult, error) {
	res := staging.FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		logger.Info("load.file.empty", "file", path)
		res.Skipped = true
		return res, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		res.Err = err.Error()
		if qerr := l.Rejecter.Reject(constants.StageLoad, path, raw, err); qerr != nil {
			return res, qerr
		}
		return res, nil
	}

	id, err := l.Jobs.InsertRecord(ctx, &rec)
	if err != nil {
		return res, common.NewAppError("LOAD_FAILED", fmt.Sprintf("insert %s", path), fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}
	res.Output = fmt.Sprint(id)
	logger.Debug("load.file.ok", "file", path, "job_id", id, "record_id", rec.RecordID)
	return res, nil
}

// decodeRecord validates raw against the record schema and decodes it,
// keeping numbers as json.Number.
func decodeRecord(raw []byte) (entity.JobRecord, error) {
	var rec entity.JobRecord
	if err := transform.ValidateRecord(raw); err != nil {
		return rec, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
