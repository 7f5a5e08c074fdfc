package export

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobs-etl/internal/entity"
	"github.com/joseph-ayodele/jobs-etl/internal/repository"
)

type fakeJobs struct {
	rows []entity.JobRow
	err  error
}

func (f *fakeJobs) InsertRecord(context.Context, *entity.JobRecord) (int64, error) { return 0, nil }
func (f *fakeJobs) ListJobs(context.Context) ([]entity.JobRow, error)              { return f.rows, f.err }

func ptr[T any](v T) *T { return &v }

func TestExportJobsXLSX(t *testing.T) {
	jobs := &fakeJobs{rows: []entity.JobRow{
		{
			ID:          1,
			Title:       ptr("Nurse"),
			DatePosted:  time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC),
			CompanyName: ptr("Mercy"),
			MinValue:    ptr(55000.0),
		},
		{ID: 2, Title: ptr("Welder"), DatePosted: "2021-03-04"},
	}}

	data, err := NewService(jobs, nil).ExportJobsXLSX(t.Context())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Jobs"}, f.GetSheetList())
	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, headers, rows[0])

	require.Equal(t, "Nurse", rows[1][2])
	require.Equal(t, "2022-01-15", rows[1][5])
	require.Equal(t, "Mercy", rows[1][6])
	require.Equal(t, "55000", rows[1][11])
	require.Equal(t, "Welder", rows[2][2])
	require.Equal(t, "2021-03-04", rows[2][5])
}

func TestExportJobsXLSXFromSQLiteStore(t *testing.T) {
	drv, _, err := repository.Open(t.Context(), repository.Config{
		Driver:      repository.DriverSQLite,
		DSN:         "file:" + filepath.Join(t.TempDir(), "jobs.db"),
		DialTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(drv, nil, nil) })
	require.NoError(t, repository.NewSchemaRepository(drv, nil).EnsureSchema(t.Context()))

	jobs := repository.NewJobRepository(drv, nil)
	_, err = jobs.InsertRecord(t.Context(), &entity.JobRecord{
		Job:      entity.Job{Title: "Backend Engineer", DatePosted: "2021-03-04"},
		Company:  entity.Company{Name: "Acme"},
		Location: entity.Location{Country: "US", Locality: "Austin"},
		Salary:   entity.Salary{Currency: "USD", MinValue: float64(100000)},
	})
	require.NoError(t, err)
	_, err = jobs.InsertRecord(t.Context(), &entity.JobRecord{
		Job:      entity.Job{Title: "Nurse"},
		Company:  entity.Company{Name: "Mercy"},
		Location: entity.Location{Locality: "Boston"},
	})
	require.NoError(t, err)

	data, err := NewService(jobs, nil).ExportJobsXLSX(t.Context())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, "Backend Engineer", rows[1][2])
	require.True(t, strings.HasPrefix(rows[1][5], "2021-03-04"), rows[1][5])
	require.Equal(t, "Acme", rows[1][6])
	require.Equal(t, "US", rows[1][8])
	require.Equal(t, "Austin", rows[1][9])
	require.Equal(t, "USD", rows[1][10])
	require.Equal(t, "100000", rows[1][11])

	require.Equal(t, "Nurse", rows[2][2])
	require.Equal(t, "Mercy", rows[2][6])
	require.Equal(t, "Boston", rows[2][9])
}

func TestExportPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&fakeJobs{err: boom}, nil).ExportJobsXLSX(t.Context())
	require.ErrorIs(t, err, boom)
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "", formatDate(nil))
	require.Equal(t, "2020-02-29", formatDate([]byte("2020-02-29")))
	require.Equal(t, "2020-02-29", formatDate(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)))
}
