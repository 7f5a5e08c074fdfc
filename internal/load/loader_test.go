package load

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/repository"
	"github.com/joseph-ayodele/jobs-etl/internal/staging"
	"github.com/joseph-ayodele/jobs-etl/internal/transform"
)

const record = `{
  "record_id": "8f14e45f-ceea-5677-a8b4-1c2f5c1d5e1a",
  "job": {"title": "Analyst", "industry": "Finance", "description": "crunch numbers", "employment_type": "CONTRACTOR", "date_posted": "2022-01-15"},
  "company": {"name": "Ledger", "link": ""},
  "education": {"required_credential": ""},
  "experience": {"months_of_experience": 12, "seniority_level": ""},
  "salary": {"currency": "GBP", "min_value": 40000, "max_value": "", "unit": "YEAR"},
  "location": {"country": "UK", "locality": "London", "region": "", "postal_code": "", "street_address": "", "latitude": "", "longitude": ""}
}`

type fixture struct {
	drv    *entsql.Driver
	schema repository.SchemaRepository
	loader *Loader
	dir    string
}

func newFixture(t *testing.T, policy constants.RejectPolicy) *fixture {
	t.Helper()
	drv, _, err := repository.Open(t.Context(), repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    "file:" + filepath.Join(t.TempDir(), "jobs.db"),
	}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(drv, nil, nil) })

	schema := repository.NewSchemaRepository(drv, nil)
	require.NoError(t, schema.EnsureSchema(t.Context()))

	dir := filepath.Join(t.TempDir(), "transformed")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	rejecter := staging.NewRejecter(policy, filepath.Join(t.TempDir(), "quarantine"), nil)
	return &fixture{
		drv:    drv,
		schema: schema,
		loader: NewLoader(dir, repository.NewJobRepository(drv, nil), rejecter, nil),
		dir:    dir,
	}
}

func (f *fixture) stage(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o644))
}

func (f *fixture) count(t *testing.T, table string) int64 {
	t.Helper()
	n, err := f.schema.CountRows(t.Context(), table)
	require.NoError(t, err)
	return n
}

func TestLoaderInsertsEachRecordIntoAllTables(t *testing.T) {
	f := newFixture(t, constants.RejectDrop)
	f.stage(t, "0.json", record)
	f.stage(t, "1.json", record)

	results, stats, err := f.loader.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint32(2), stats.Succeeded)
	for _, table := range constants.Tables {
		require.Equal(t, int64(2), f.count(t, table), table)
	}
}

func TestLoaderSkipsEmptyFiles(t *testing.T) {
	f := newFixture(t, constants.RejectDrop)
	f.stage(t, "0.json", "")
	f.stage(t, "1.json", record)

	_, stats, err := f.loader.Run(t.Context())
	require.NoError(t, err)
	require.Equal(t, staging.DirStats{Scanned: 2, Succeeded: 1, Skipped: 1}, stats)
	require.Equal(t, int64(1), f.count(t, "job"))
}

func TestLoaderRejectsInvalidRecords(t *testing.T) {
	f := newFixture(t, constants.RejectQuarantine)
	f.stage(t, "0.json", "{broken")
	f.stage(t, "1.json", `{"record_id": "x", "job": {}}`)
	f.stage(t, "2.json", record)

	_, stats, err := f.loader.Run(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint32(2), stats.Failed)
	require.Equal(t, uint32(1), stats.Succeeded)
	require.Equal(t, int64(1), f.count(t, "job"))

	_, err = os.Stat(filepath.Join(f.loader.Rejecter.Dir, "load", "0.json.reason"))
	require.NoError(t, err)
}

func TestLoaderRollsBackAndPropagatesStoreErrors(t *testing.T) {
	f := newFixture(t, constants.RejectDrop)
	require.NoError(t, f.drv.Exec(t.Context(), "DROP TABLE location", []any{}, nil))
	f.stage(t, "0.json", record)

	_, _, err := f.loader.Run(t.Context())
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrDatabase))

	for _, table := range []string{"job", "company", "education", "experience", "salary"} {
		require.Zero(t, f.count(t, table), table)
	}
}

func TestLoaderMissingDir(t *testing.T) {
	f := newFixture(t, constants.RejectDrop)
	f.loader.Dir = filepath.Join(t.TempDir(), "missing")
	_, _, err := f.loader.Run(t.Context())
	require.Error(t, err)
}

func TestTransformedOutputLoads(t *testing.T) {
	f := newFixture(t, constants.RejectDrop)
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "0.txt"), []byte(`{"title":"Nurse","estimatedSalary":{"value":{"minValue":"55,000"}}}`), 0o644))

	_, _, err := transform.NewTransformer(in, f.dir, "jobs.csv", nil, nil).Run(t.Context())
	require.NoError(t, err)

	_, stats, err := f.loader.Run(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint32(1), stats.Succeeded)

	rows, err := repository.NewJobRepository(f.drv, nil).ListJobs(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Nurse", *rows[0].Title)
	require.NotNil(t, rows[0].MinValue)
	require.InDelta(t, 55000, *rows[0].MinValue, 0.001)
	require.Nil(t, rows[0].MaxValue)
}
