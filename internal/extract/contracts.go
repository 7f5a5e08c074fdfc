package extract

import (
	"context"
	"errors"
	"iter"
	"time"
)

// ErrMissingColumn is returned when the source has no payload column.
var ErrMissingColumn = errors.New("payload column not found")

// Row is one data row of the tabular source. Index is 0-based, header excluded.
type Row struct {
	Index   int
	Payload string
}

// Source yields the payload column of a tabular file, row by row.
// Iteration stops at the first error.
type Source interface {
	Name() string
	Rows(ctx context.Context) iter.Seq2[Row, error]
}

type Result struct {
	Source   string
	Dir      string
	Rows     int
	Written  int
	Duration time.Duration
}

// naValues are read as missing and staged as "nan".
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// payloadText is the staged text form of a cell.
func payloadText(cell string) string {
	if _, ok := naValues[cell]; ok {
		return "nan"
	}
	return cell
}
