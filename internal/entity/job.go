package entity

// JobRow is a loaded job joined with its company, location and salary rows.
// Column tags match the aliases selected by the repository.
type JobRow struct {
	ID             int64    `sql:"id"`
	RecordID       *string  `sql:"record_id"`
	Title          *string  `sql:"title"`
	Industry       *string  `sql:"industry"`
	EmploymentType *string  `sql:"employment_type"`
	DatePosted     any      `sql:"date_posted"`
	CompanyName    *string  `sql:"company_name"`
	CompanyLink    *string  `sql:"company_link"`
	Country        *string  `sql:"country"`
	Locality       *string  `sql:"locality"`
	Currency       *string  `sql:"currency"`
	MinValue       *float64 `sql:"min_value"`
	MaxValue       *float64 `sql:"max_value"`
	Unit           *string  `sql:"unit"`
}
