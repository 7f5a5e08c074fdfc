package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/entity"
)

// OpenSource picks the reader for path by extension.
func OpenSource(path, column, sheet string) (Source, error) {
	switch ext := constants.NormalizeExt(filepath.Ext(path)); ext {
	case "csv":
		return NewCSVSource(path, column), nil
	case "xlsx":
		return NewXLSXSource(path, column, sheet), nil
	default:
		return nil, common.NewAppError("UNSUPPORTED_SOURCE", fmt.Sprintf("unsupported source extension %q", ext), common.ErrInvalidInput)
	}
}

// Extractor stages each source row as <row>.txt in Dir. Existing files with
// the same row number are overwritten; nothing else in Dir is touched.
type Extractor struct {
	Dir    string
	Logger *slog.Logger
}

func NewExtractor(dir string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Dir: dir, Logger: logger}
}

func (e *Extractor) Run(ctx context.Context, src Source) (Result, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, e.Logger)
	res := Result{Source: src.Name(), Dir: e.Dir}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return res, fmt.Errorf("create staging dir: %w", err)
	}

	for row, err := range src.Rows(ctx) {
		if err != nil {
			logger.Error("extract.read.failed", "source", res.Source, "rows", res.Rows, "error", err)
			return res, err
		}
		res.Rows++

		stem := strconv.Itoa(row.Index)
		path := filepath.Join(e.Dir, stem+"."+constants.ExtractedExt)
		if err := os.WriteFile(path, []byte(row.Payload), 0o644); err != nil {
			logger.Error("extract.write.failed", "file", path, "error", err)
			return res, fmt.Errorf("write %s: %w", path, err)
		}
		res.Written++
		logger.Debug("extract.row.ok", "file", path, "record_id", entity.NewRecordID(res.Source, stem))
	}

	res.Duration = time.Since(start)
	logger.Info("extract.ok",
		"source", res.Source,
		"rows", res.Rows,
		"written", res.Written,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
