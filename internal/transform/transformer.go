package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/entity"
	"github.com/joseph-ayodele/jobs-etl/internal/staging"
)

// Transformer turns every staged payload in InDir into <stem>.json in OutDir.
type Transformer struct {
	InDir  string
	OutDir string
	// SourceName seeds the record ids; it is the base name of the extracted source.
	SourceName string
	// Clean is applied to the description; tests substitute it.
	Clean    func(string) string
	Rejecter *staging.Rejecter
	Logger   *slog.Logger
}

func NewTransformer(inDir, outDir, sourceName string, rejecter *staging.Rejecter, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	if rejecter == nil {
		rejecter = staging.NewRejecter(constants.RejectDrop, "", logger)
	}
	return &Transformer{
		InDir:      inDir,
		OutDir:     outDir,
		SourceName: sourceName,
		Clean:      CleanDescription,
		Rejecter:   rejecter,
		Logger:     logger,
	}
}

// Run processes files in natural row order. Malformed payloads are rejected and
// the pass continues; filesystem errors abort it.
func (t *Transformer) Run(ctx context.Context) ([]staging.FileResult, staging.DirStats, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, t.Logger)

	var (
		results []staging.FileResult
		stats   staging.DirStats
	)
	files, err := staging.ListFiles(t.InDir)
	if err != nil {
		return nil, stats, err
	}
	if err := os.MkdirAll(t.OutDir, 0o755); err != nil {
		return nil, stats, fmt.Errorf("create staging dir: %w", err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}
		res, err := t.transformFile(logger, path)
		if err != nil {
			logger.Error("transform.file.failed", "file", path, "error", err)
			return results, stats, err
		}
		results = append(results, res)
		stats.Add(res)
	}

	logger.Info("transform.ok",
		"scanned", stats.Scanned,
		"written", stats.Succeeded,
		"skipped", stats.Skipped,
		"rejected", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, stats, nil
}

// IsSkipMarker reports content the extractor staged for an empty source cell.
func IsSkipMarker(content string) bool {
	return content == "{}" || strings.EqualFold(content, "nan")
}

func (t *Transformer) transformFile(logger *slog.Logger, path string) (staging.FileResult, error) {
	res := staging.FileResult{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	if IsSkipMarker(string(raw)) {
		logger.Debug("transform.file.skipped", "file", path)
		res.Skipped = true
		return res, nil
	}

	stem := staging.Stem(path)
	out, err := t.buildRecord(raw, stem)
	if err != nil {
		res.Err = err.Error()
		if qerr := t.Rejecter.Reject(constants.StageTransform, path, raw, err); qerr != nil {
			return res, qerr
		}
		return res, nil
	}

	dst := filepath.Join(t.OutDir, stem+"."+constants.TransformedExt)
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return res, fmt.Errorf("write %s: %w", dst, err)
	}
	res.Output = dst
	return res, nil
}

// buildRecord maps, serializes and validates one payload.
func (t *Transformer) buildRecord(raw []byte, stem string) ([]byte, error) {
	rec, err := MapPosting(raw, t.Clean)
	if err != nil {
		return nil, err
	}
	rec.RecordID = entity.NewRecordID(t.SourceName, stem)
	out, err := encodeRecord(&rec)
	if err != nil {
		return nil, err
	}
	if err := ValidateRecord(out); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeRecord writes two-space indented JSON without HTML escaping.
func encodeRecord(rec *entity.JobRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}
