package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobs-etl/internal/repository"
	"github.com/joseph-ayodele/jobs-etl/internal/utils"
)

const sheet = "Jobs"

var headers = []string{
	"Job ID",
	"Record ID",
	"Title",
	"Industry",
	"Employment Type",
	"Date Posted",
	"Company",
	"Company Link",
	"Country",
	"Locality",
	"Currency",
	"Min Salary",
	"Max Salary",
	"Unit",
}

// Service produces XLSX bytes from the loaded store.
type Service struct {
	jobs   repository.JobRepository
	logger *slog.Logger
}

func NewService(jobs repository.JobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// ExportJobsXLSX returns a workbook with one row per loaded job, in load order.
func (s *Service) ExportJobsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet so the workbook has exactly one
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, j.ID)
		write(2, utils.StrOrEmpty(j.RecordID))
		write(3, utils.StrOrEmpty(j.Title))
		write(4, utils.StrOrEmpty(j.Industry))
		write(5, utils.StrOrEmpty(j.EmploymentType))
		write(6, formatDate(j.DatePosted))
		write(7, utils.StrOrEmpty(j.CompanyName))
		write(8, utils.StrOrEmpty(j.CompanyLink))
		write(9, utils.StrOrEmpty(j.Country))
		write(10, utils.StrOrEmpty(j.Locality))
		write(11, utils.StrOrEmpty(j.Currency))
		if j.MinValue != nil {
			write(12, *j.MinValue)
		}
		if j.MaxValue != nil {
			write(13, *j.MaxValue)
		}
		write(14, utils.StrOrEmpty(j.Unit))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "B", 38) // uuid
	_ = f.SetColWidth(sheet, "C", "E", 28)
	_ = f.SetColWidth(sheet, "F", "F", 14) // date
	_ = f.SetColWidth(sheet, "G", "H", 32)
	_ = f.SetColWidth(sheet, "I", "N", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// formatDate renders a scanned DATE column. Drivers differ on whether they
// return time.Time, a string or bytes.
func formatDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return d.UTC().Format("2006-01-02")
	case []byte:
		return string(d)
	case string:
		return d
	default:
		return fmt.Sprint(d)
	}
}
