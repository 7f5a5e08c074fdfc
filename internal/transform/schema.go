package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/jobs-etl/internal/common"
)

// BuildRecordJSONSchema returns the JSON-Schema of a transformed record as a generic map.
// The transformer validates before writing and the loader validates before inserting.
func BuildRecordJSONSchema() map[string]any {
	return object(map[string]any{
		"record_id": map[string]any{"type": "string"},
		"job": object(map[string]any{
			"title":           stringProp(),
			"industry":        stringProp(),
			"description":     stringProp(),
			"employment_type": stringProp(),
			"date_posted":     stringProp(),
		}),
		"company": object(map[string]any{
			"name": stringProp(),
			"link": stringProp(),
		}),
		"education": object(map[string]any{
			"required_credential": stringProp(),
		}),
		"experience": object(map[string]any{
			"months_of_experience": scalarProp(),
			"seniority_level":      stringProp(),
		}),
		"salary": object(map[string]any{
			"currency":  stringProp(),
			"min_value": scalarProp(),
			"max_value": scalarProp(),
			"unit":      stringProp(),
		}),
		"location": object(map[string]any{
			"country":        stringProp(),
			"locality":       stringProp(),
			"region":         stringProp(),
			"postal_code":    stringProp(),
			"street_address": stringProp(),
			"latitude":       scalarProp(),
			"longitude":      scalarProp(),
		}),
	})
}

// object requires every listed property and nothing else.
func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func stringProp() map[string]any { return map[string]any{"type": "string"} }

// numeric source fields: a number, or "" when absent
func scalarProp() map[string]any { return map[string]any{"type": []string{"number", "string"}} }

var recordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(BuildRecordJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// ValidateRecord checks a serialized record against the record schema.
func ValidateRecord(data []byte) error {
	schema, err := recordSchema()
	if err != nil {
		return err
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return common.NewAppError("INVALID_RECORD", "record is not valid JSON", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}
	if err := schema.Validate(v); err != nil {
		return common.NewAppError("INVALID_RECORD", "record does not match schema", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}
	return nil
}
