package entity

// JobRecord is one transformed posting as written to the transformed staging
// directory and read back by the loader. Fields the source lacks are "".
type JobRecord struct {
	RecordID   string     `json:"record_id"`
	Job        Job        `json:"job"`
	Company    Company    `json:"company"`
	Education  Education  `json:"education"`
	Experience Experience `json:"experience"`
	Salary     Salary     `json:"salary"`
	Location   Location   `json:"location"`
}

type Job struct {
	Title          string `json:"title"`
	Industry       string `json:"industry"`
	Description    string `json:"description"`
	EmploymentType string `json:"employment_type"`
	DatePosted     string `json:"date_posted"`
}

type Company struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

type Education struct {
	RequiredCredential string `json:"required_credential"`
}

// Experience keeps MonthsOfExperience as the raw JSON scalar (number or string).
type Experience struct {
	MonthsOfExperience any    `json:"months_of_experience"`
	SeniorityLevel     string `json:"seniority_level"`
}

// Salary keeps MinValue / MaxValue as raw JSON scalars.
type Salary struct {
	Currency string `json:"currency"`
	MinValue any    `json:"min_value"`
	MaxValue any    `json:"max_value"`
	Unit     string `json:"unit"`
}

// Location keeps Latitude / Longitude as raw JSON scalars.
type Location struct {
	Country       string `json:"country"`
	Locality      string `json:"locality"`
	Region        string `json:"region"`
	PostalCode    string `json:"postal_code"`
	StreetAddress string `json:"street_address"`
	Latitude      any    `json:"latitude"`
	Longitude     any    `json:"longitude"`
}
