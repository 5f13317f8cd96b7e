// internal/validation/params.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// paramsSchemaJSON constrains a scenario params document to the stable
// field names: percentage fields on the 0-100 scale, positive integer
// horizons, and the two rental types. Unknown fields are rejected so
// typos fail loudly instead of silently falling back to defaults.
const paramsSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["purchase_price", "amort_years"],
	"additionalProperties": false,
	"properties": {
		"purchase_price":                        {"type": "number", "exclusiveMinimum": 0},
		"down_payment_percent":                  {"type": "number", "minimum": 0, "maximum": 100},
		"annual_interest_percent":               {"type": "number", "minimum": 0, "maximum": 100},
		"amort_years":                           {"type": "integer", "minimum": 1},
		"rental_type":                           {"type": "string", "enum": ["long_term", "short_term"]},
		"monthly_rent":                          {"type": "number", "minimum": 0},
		"rent_growth_percent_per_year":          {"type": "number", "minimum": 0, "maximum": 100},
		"vacancy_percent":                       {"type": "number", "minimum": 0, "maximum": 100},
		"nightly_rate":                          {"type": "number", "minimum": 0},
		"occupancy_percent":                     {"type": "number", "minimum": 0, "maximum": 100},
		"cleaning_fee_per_stay":                 {"type": "number", "minimum": 0},
		"avg_stay_length_nights":                {"type": "number", "exclusiveMinimum": 0},
		"platform_fee_percent":                  {"type": "number", "minimum": 0, "maximum": 100},
		"tax_percent_of_price_per_year":         {"type": "number", "minimum": 0, "maximum": 100},
		"insurance_percent_of_price_per_year":   {"type": "number", "minimum": 0, "maximum": 100},
		"maintenance_percent_of_price_per_year": {"type": "number", "minimum": 0, "maximum": 100},
		"other_costs_monthly":                   {"type": "number", "minimum": 0},
		"years":                                 {"type": "integer", "minimum": 1},
		"appreciation_percent_per_year":         {"type": "number", "minimum": 0, "maximum": 100},
		"closing_costs_percent_of_price":        {"type": "number", "minimum": 0, "maximum": 100},
		"start_date":                            {"type": "string"}
	}
}`

var paramsSchemaLoader = gojsonschema.NewStringLoader(paramsSchemaJSON)

// ValidationError pinpoints one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of checking one params document.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// FieldErrors flattens the errors into the metadata shape the standard
// error envelope carries.
func (r *ValidationResult) FieldErrors() map[string]interface{} {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(r.Errors))
	for _, e := range r.Errors {
		out[e.Field] = e.Message
	}
	return out
}

// ValidateParams checks a raw params document against the schema. The
// returned error is reserved for malformed JSON or schema plumbing;
// content violations land in the result.
func ValidateParams(doc []byte) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(paramsSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate params: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}
