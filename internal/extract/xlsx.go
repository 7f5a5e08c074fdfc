package extract

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the payload column of a worksheet whose first row is the header.
// An empty Sheet means the first sheet of the workbook.
type XLSXSource struct {
	Path   string
	Column string
	Sheet  string
}

func NewXLSXSource(path, column, sheet string) *XLSXSource {
	return &XLSXSource{Path: path, Column: column, Sheet: sheet}
}

func (s *XLSXSource) Name() string { return filepath.Base(s.Path) }

func (s *XLSXSource) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		f, err := excelize.OpenFile(s.Path)
		if err != nil {
			yield(Row{}, fmt.Errorf("open source: %w", err))
			return
		}
		defer f.Close()

		sheet := s.Sheet
		if sheet == "" {
			sheets := f.GetSheetList()
			if len(sheets) == 0 {
				yield(Row{}, fmt.Errorf("workbook %s has no sheets", s.Path))
				return
			}
			sheet = sheets[0]
		}

		rows, err := f.Rows(sheet)
		if err != nil {
			yield(Row{}, fmt.Errorf("read sheet %q: %w", sheet, err))
			return
		}
		defer rows.Close()

		col := -1
		for i := -1; rows.Next(); i++ {
			if err := ctx.Err(); err != nil {
				yield(Row{}, err)
				return
			}
			cells, err := rows.Columns()
			if err != nil {
				yield(Row{}, fmt.Errorf("row %d: %w", i, err))
				return
			}
			if i < 0 {
				for j, h := range cells {
					if strings.TrimSpace(h) == s.Column {
						col = j
						break
					}
				}
				if col < 0 {
					yield(Row{}, fmt.Errorf("%w: %q", ErrMissingColumn, s.Column))
					return
				}
				continue
			}
			var cell string
			if col < len(cells) {
				cell = cells[col]
			}
			if !yield(Row{Index: i, Payload: payloadText(cell)}, nil) {
				return
			}
		}
		if err := rows.Error(); err != nil {
			yield(Row{}, fmt.Errorf("read sheet %q: %w", sheet, err))
		}
	}
}
