package transform

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/entity"
)

// MapPosting maps a JSON-LD JobPosting document onto a JobRecord. Lookups are
// permissive: a missing key, or a path through a value that is not an object,
// yields "". The description is passed through clean.
func MapPosting(raw []byte, clean func(string) string) (entity.JobRecord, error) {
	if !gjson.ValidBytes(raw) {
		return entity.JobRecord{}, common.NewAppError("MALFORMED_PAYLOAD", "payload is not valid JSON", common.ErrMalformed)
	}
	raw, err := lastKeyWins(raw)
	if err != nil {
		return entity.JobRecord{}, common.NewAppError("MALFORMED_PAYLOAD", "payload could not be decoded", fmt.Errorf("%w: %w", common.ErrMalformed, err))
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return entity.JobRecord{}, common.NewAppError("MALFORMED_PAYLOAD", "payload is not a JSON object", common.ErrMalformed)
	}
	if clean == nil {
		clean = CleanDescription
	}

	str := func(path string) string { return text(doc.Get(path)) }
	num := func(path string) any { return scalar(doc.Get(path)) }

	return entity.JobRecord{
		Job: entity.Job{
			Title:          str("title"),
			Industry:       str("industry"),
			Description:    clean(str("description")),
			EmploymentType: str("employmentType"),
			DatePosted:     str("datePosted"),
		},
		Company: entity.Company{
			Name: str("hiringOrganization.name"),
			Link: str("hiringOrganization.sameAs"),
		},
		Education: entity.Education{
			RequiredCredential: str("educationRequirements.credentialCategory"),
		},
		Experience: entity.Experience{
			MonthsOfExperience: num("experienceRequirements.monthsOfExperience"),
			SeniorityLevel:     str("experienceRequirements.seniority_level"),
		},
		Salary: entity.Salary{
			Currency: str("estimatedSalary.currency"),
			MinValue: num("estimatedSalary.value.minValue"),
			MaxValue: num("estimatedSalary.value.maxValue"),
			Unit:     str("estimatedSalary.value.unitText"),
		},
		Location: entity.Location{
			Country:       str("jobLocation.address.addressCountry"),
			Locality:      str("jobLocation.address.addressLocality"),
			Region:        str("jobLocation.address.addressRegion"),
			PostalCode:    str("jobLocation.address.postalCode"),
			StreetAddress: str("jobLocation.address.streetAddress"),
			Latitude:      num("jobLocation.latitude"),
			Longitude:     num("jobLocation.longitude"),
		},
	}, nil
}

// text renders a looked-up value as a string; null and missing become "".
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	default:
		// numbers, booleans and nested JSON keep their source text
		return r.Raw
	}
}

// scalar keeps numbers as numbers (exact source digits) and everything else as text.
func scalar(r gjson.Result) any {
	if r.Type == gjson.Number {
		return json.Number(r.Raw)
	}
	return text(r)
}

// lastKeyWins re-encodes raw so that a key repeated within one object keeps its
// last value; gjson alone would return the first. Numbers keep their literal text.
func lastKeyWins(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
