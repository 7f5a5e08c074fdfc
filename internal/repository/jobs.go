package repository

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/jobs-etl/internal/entity"
	"github.com/joseph-ayodele/jobs-etl/internal/utils"
)

type JobRepository interface {
	// InsertRecord writes the job row and its five child rows in one transaction
	// and returns the new job id.
	InsertRecord(ctx context.Context, rec *entity.JobRecord) (int64, error)
	// ListJobs returns every job joined with its company, location and salary.
	ListJobs(ctx context.Context) ([]entity.JobRow, error)
}

type jobRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewJobRepository(drv *entsql.Driver, logger *slog.Logger) JobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobRepository{
		drv:    drv,
		logger: logger,
	}
}

// childInsert is one dependent table row keyed by job_id.
type childInsert struct {
	table   string
	columns []string
	values  []any
}

func (r *jobRepository) InsertRecord(ctx context.Context, rec *entity.JobRecord) (id int64, err error) {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		r.logger.Error("failed to begin transaction", "record_id", rec.RecordID, "error", err)
		return 0, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("failed to roll back record", "record_id", rec.RecordID, "error", rbErr)
			}
		}
	}()

	id, err = r.insertJob(ctx, tx, rec)
	if err != nil {
		r.logger.Error("failed to insert job", "record_id", rec.RecordID, "error", err)
		return 0, err
	}

	b := entsql.Dialect(r.drv.Dialect())
	for _, c := range r.children(rec) {
		query, args := b.Insert(c.table).
			Columns(append([]string{"job_id"}, c.columns...)...).
			Values(append([]any{id}, c.values...)...).
			Query()
		if err = tx.Exec(ctx, query, args, nil); err != nil {
			r.logger.Error("failed to insert child row", "table", c.table, "record_id", rec.RecordID, "job_id", id, "error", err)
			return 0, fmt.Errorf("insert %s: %w", c.table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("failed to commit record", "record_id", rec.RecordID, "error", err)
		return 0, err
	}
	return id, nil
}

func (r *jobRepository) insertJob(ctx context.Context, tx dialect.Tx, rec *entity.JobRecord) (int64, error) {
	j := rec.Job
	query, args := entsql.Dialect(r.drv.Dialect()).
		Insert("job").
		Columns("record_id", "title", "industry", "description", "employment_type", "date_posted").
		Values(utils.NullIfEmpty(rec.RecordID), j.Title, j.Industry, j.Description, j.EmploymentType, r.datePosted(rec)).
		Returning("id").
		Query()

	var rows entsql.Rows
	if err := tx.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	// rows must be closed before the next statement on the same connection
	defer rows.Close()
	id, err := entsql.ScanInt64(rows)
	if err != nil {
		return 0, fmt.Errorf("scan job id: %w", err)
	}
	return id, nil
}

func (r *jobRepository) children(rec *entity.JobRecord) []childInsert {
	return []childInsert{
		{
			table:   "company",
			columns: []string{"name", "link"},
			values:  []any{rec.Company.Name, rec.Company.Link},
		},
		{
			table:   "education",
			columns: []string{"required_credential"},
			values:  []any{rec.Education.RequiredCredential},
		},
		{
			table:   "experience",
			columns: []string{"months_of_experience", "seniority_level"},
			values:  []any{intOrNull(rec.Experience.MonthsOfExperience), rec.Experience.SeniorityLevel},
		},
		{
			table:   "salary",
			columns: []string{"currency", "min_value", "max_value", "unit"},
			values: []any{
				rec.Salary.Currency,
				floatOrNull(rec.Salary.MinValue),
				floatOrNull(rec.Salary.MaxValue),
				rec.Salary.Unit,
			},
		},
		{
			table:   "location",
			columns: []string{"country", "locality", "region", "postal_code", "street_address", "latitude", "longitude"},
			values: []any{
				rec.Location.Country,
				rec.Location.Locality,
				rec.Location.Region,
				rec.Location.PostalCode,
				rec.Location.StreetAddress,
				floatOrNull(rec.Location.Latitude),
				floatOrNull(rec.Location.Longitude),
			},
		},
	}
}

// datePosted normalizes to YYYY-MM-DD; anything unparsable is stored as NULL.
func (r *jobRepository) datePosted(rec *entity.JobRecord) any {
	raw := rec.Job.DatePosted
	if raw == "" {
		return nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		r.logger.Warn("unparsable date_posted stored as NULL", "record_id", rec.RecordID, "value", raw)
		return nil
	}
	return t.Format("2006-01-02")
}

func floatOrNull(v any) any {
	if f, ok := utils.ToFloat(v); ok {
		return f
	}
	return nil
}

func intOrNull(v any) any {
	if n, ok := utils.ToInt(v); ok {
		return n
	}
	return nil
}

func (r *jobRepository) ListJobs(ctx context.Context) ([]entity.JobRow, error) {
	b := entsql.Dialect(r.drv.Dialect())
	// aliases are fixed up front; Join would otherwise rename the tables after
	// the column references below were built
	j, c := b.Table("job").As("j"), b.Table("company").As("c")
	l, s := b.Table("location").As("l"), b.Table("salary").As("s")
	query, args := b.Select(
		j.C("id"), j.C("record_id"), j.C("title"), j.C("industry"), j.C("employment_type"), j.C("date_posted"),
		entsql.As(c.C("name"), "company_name"), entsql.As(c.C("link"), "company_link"),
		l.C("country"), l.C("locality"),
		s.C("currency"), s.C("min_value"), s.C("max_value"), s.C("unit"),
	).
		From(j).
		LeftJoin(c).On(j.C("id"), c.C("job_id")).
		LeftJoin(l).On(j.C("id"), l.C("job_id")).
		LeftJoin(s).On(j.C("id"), s.C("job_id")).
		OrderBy(j.C("id")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to list jobs", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.JobRow
	if err := entsql.ScanSlice(rows, &out); err != nil {
		r.logger.Error("failed to scan jobs", "error", err)
		return nil, err
	}
	return out, nil
}
