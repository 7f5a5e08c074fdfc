package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
)

const payloadHeader = "payload"

// payloadRecord receives the configured column; the header is renamed before decoding.
type payloadRecord struct {
	Payload string `csv:"payload"`
}

// CSVSource reads the payload column of a CSV file with a header row.
type CSVSource struct {
	Path   string
	Column string
}

func NewCSVSource(path, column string) *CSVSource {
	return &CSVSource{Path: path, Column: column}
}

func (s *CSVSource) Name() string { return filepath.Base(s.Path) }

func (s *CSVSource) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		f, err := os.Open(s.Path)
		if err != nil {
			yield(Row{}, fmt.Errorf("open source: %w", err))
			return
		}
		defer f.Close()

		r := csv.NewReader(f)
		header, err := r.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(Row{}, fmt.Errorf("read header: %w", err))
			return
		}

		decHeader, err := renameColumn(header, s.Column)
		if err != nil {
			yield(Row{}, err)
			return
		}
		dec, err := csvutil.NewDecoder(r, decHeader...)
		if err != nil {
			yield(Row{}, fmt.Errorf("csv decoder: %w", err))
			return
		}

		for i := 0; ; i++ {
			if err := ctx.Err(); err != nil {
				yield(Row{}, err)
				return
			}
			var rec payloadRecord
			err := dec.Decode(&rec)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Row{}, fmt.Errorf("row %d: %w", i, err))
				return
			}
			if !yield(Row{Index: i, Payload: payloadText(rec.Payload)}, nil) {
				return
			}
		}
	}
}

// renameColumn maps the configured column to payloadHeader and every other
// column to a unique placeholder so arbitrary source headers cannot collide.
func renameColumn(header []string, column string) ([]string, error) {
	out := make([]string, len(header))
	found := false
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if !found && h == column {
			out[i] = payloadHeader
			found = true
			continue
		}
		out[i] = "_col" + strconv.Itoa(i)
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	return out, nil
}
