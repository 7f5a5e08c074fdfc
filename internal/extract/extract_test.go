package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobs-etl/internal/common"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readStaged(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func TestExtractCSVWritesRowFiles(t *testing.T) {
	src := writeCSV(t, "id,context\n"+
		"7,\"{\"\"title\"\": \"\"Engineer\"\"}\"\n"+
		"8,\n"+
		"9,\"multi\nline\"\n")
	out := filepath.Join(t.TempDir(), "staging", "extracted")

	res, err := NewExtractor(out, nil).Run(t.Context(), NewCSVSource(src, "context"))
	require.NoError(t, err)
	require.Equal(t, 3, res.Rows)
	require.Equal(t, 3, res.Written)
	require.Equal(t, "jobs.csv", res.Source)

	require.Equal(t, `{"title": "Engineer"}`, readStaged(t, out, "0.txt"))
	require.Equal(t, "nan", readStaged(t, out, "1.txt"))
	require.Equal(t, "multi\nline", readStaged(t, out, "2.txt"))
}

func TestExtractSingleRowWritesOnlyFirstFile(t *testing.T) {
	out := t.TempDir()
	_, err := NewExtractor(out, nil).Run(t.Context(), NewCSVSource(writeCSV(t, "context\n\"{\"\"title\"\": \"\"Nurse\"\"}\"\n"), "context"))
	require.NoError(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "0.txt", entries[0].Name())
	require.Equal(t, `{"title": "Nurse"}`, readStaged(t, out, "0.txt"))
}

func TestExtractOverwritesByRowNumber(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "0.txt"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "5.txt"), []byte("stale"), 0o644))

	_, err := NewExtractor(out, nil).Run(t.Context(), NewCSVSource(writeCSV(t, "context\n{}\n"), "context"))
	require.NoError(t, err)
	require.Equal(t, "{}", readStaged(t, out, "0.txt"))
	require.Equal(t, "stale", readStaged(t, out, "5.txt"))
}

func TestExtractMissingColumn(t *testing.T) {
	_, err := NewExtractor(t.TempDir(), nil).Run(t.Context(), NewCSVSource(writeCSV(t, "a,b\n1,2\n"), "context"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingColumn))
}

func TestExtractMissingSource(t *testing.T) {
	_, err := NewExtractor(t.TempDir(), nil).Run(t.Context(), NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), "context"))
	require.Error(t, err)
}

func TestExtractEmptySource(t *testing.T) {
	res, err := NewExtractor(t.TempDir(), nil).Run(t.Context(), NewCSVSource(writeCSV(t, ""), "context"))
	require.NoError(t, err)
	require.Zero(t, res.Rows)
}

func TestCSVHeaderWithBOMAndPayloadNamedColumn(t *testing.T) {
	src := writeCSV(t, "\ufeffcontext,payload\nA,B\n")
	var got []Row
	for row, err := range NewCSVSource(src, "context").Rows(t.Context()) {
		require.NoError(t, err)
		got = append(got, row)
	}
	require.Equal(t, []Row{{Index: 0, Payload: "A"}}, got)
}

func TestPayloadText(t *testing.T) {
	for _, na := range []string{"", "NA", "null", "NaN", "None"} {
		require.Equal(t, "nan", payloadText(na), na)
	}
	require.Equal(t, " ", payloadText(" "))
	require.Equal(t, "{}", payloadText("{}"))
}

func TestExtractXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "id"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "context"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 1))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", `{"title":"A"}`))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", 2))
	require.NoError(t, f.SetCellValue("Sheet1", "A4", 3))
	require.NoError(t, f.SetCellValue("Sheet1", "B4", `{"title":"C"}`))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src, err := OpenSource(path, "context", "")
	require.NoError(t, err)

	out := t.TempDir()
	res, err := NewExtractor(out, nil).Run(t.Context(), src)
	require.NoError(t, err)
	require.Equal(t, 3, res.Written)
	require.Equal(t, `{"title":"A"}`, readStaged(t, out, "0.txt"))
	require.Equal(t, "nan", readStaged(t, out, "1.txt"))
	require.Equal(t, `{"title":"C"}`, readStaged(t, out, "2.txt"))

	_, err = NewExtractor(out, nil).Run(t.Context(), NewXLSXSource(path, "context", "Missing"))
	require.Error(t, err)
}

func TestOpenSourceRejectsUnknownExtension(t *testing.T) {
	_, err := OpenSource("jobs.parquet", "context", "")
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrInvalidInput))

	src, err := OpenSource("jobs.CSV", "context", "")
	require.NoError(t, err)
	require.IsType(t, &CSVSource{}, src)
}

func TestExtractStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewExtractor(t.TempDir(), nil).Run(ctx, NewCSVSource(writeCSV(t, "context\na\n"), "context"))
	require.ErrorIs(t, err, context.Canceled)
}
