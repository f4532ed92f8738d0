package schema

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Validation failure codes. Each FieldError carries exactly one.
const (
	CodeUnknownField         = "UNKNOWN_FIELD"
	CodeTypeMismatch         = "TYPE_MISMATCH"
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodePrecisionViolation   = "PRECISION_VIOLATION"
	CodeInvalidOption        = "INVALID_OPTION"
)

// Mode distinguishes create from update validation. Required-field checks
// apply only to create; partial payloads are legal for update.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// PrecisionPolicy selects what Validate does with number values carrying
// more decimal places than the field declares.
type PrecisionPolicy string

const (
	// PrecisionRound rounds half away from zero to the declared places. Default.
	PrecisionRound PrecisionPolicy = "round"
	// PrecisionReject fails the field with PRECISION_VIOLATION instead.
	PrecisionReject PrecisionPolicy = "reject"
)

// ParsePrecisionPolicy converts a config string to a PrecisionPolicy.
func ParsePrecisionPolicy(s string) (PrecisionPolicy, error) {
	switch PrecisionPolicy(s) {
	case PrecisionRound, PrecisionReject:
		return PrecisionPolicy(s), nil
	case "":
		return PrecisionRound, nil
	default:
		return "", fmt.Errorf("unknown precision policy %q (want round or reject)", s)
	}
}

// FieldError is a structured, field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result carries the outcome of validating one payload. On success Payload
// holds the validated payload, unchanged except for numeric rounding under
// the round policy.
type Result struct {
	Valid   bool         `json:"valid"`
	Payload Payload      `json:"-"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// GetErrorMessages returns a simple list of error messages
func (r *Result) GetErrorMessages() []string {
	messages := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for a specific field
func (r *Result) HasErrors(field string) bool {
	for _, err := range r.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (r *Result) GetErrorsForField(field string) []FieldError {
	var fieldErrors []FieldError
	for _, err := range r.Errors {
		if err.Field == field {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

// Validator checks record payloads against table schemas. It is pure: no
// I/O, no retries, no mutation of its inputs. A single Validator may be
// shared by any number of goroutines.
type Validator struct {
	policy PrecisionPolicy
}

func NewValidator(policy PrecisionPolicy) *Validator {
	if policy == "" {
		policy = PrecisionRound
	}
	return &Validator{policy: policy}
}

// Policy reports the precision policy the validator was built with.
func (v *Validator) Policy() PrecisionPolicy { return v.policy }

// Validate checks payload against ts and returns either the validated
// payload or every field-level failure found. The input payload is never
// mutated; coerced values land in a fresh copy.
func (v *Validator) Validate(ts *TableSchema, payload Payload, mode Mode) *Result {
	errors := []FieldError{}

	if mode == ModeCreate {
		for _, name := range ts.RequiredFields() {
			if val, exists := payload[name]; !exists || val.IsNull() {
				errors = append(errors, FieldError{
					Field:   name,
					Message: "required field missing",
					Code:    CodeMissingRequiredField,
				})
			}
		}
	}

	validated := make(Payload, len(payload))
	for name, val := range payload {
		spec, exists := ts.Field(name)
		if !exists {
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("unknown field '%s' for table '%s'", name, ts.Name()),
				Code:    CodeUnknownField,
			})
			continue
		}

		out, fieldErrors := v.checkField(name, val, spec)
		if len(fieldErrors) > 0 {
			errors = append(errors, fieldErrors...)
			continue
		}
		validated[name] = out
	}

	if len(errors) > 0 {
		return &Result{Valid: false, Errors: errors}
	}
	return &Result{Valid: true, Payload: validated, Errors: errors}
}

// ValidateJSON converts a generic decoded JSON object and validates it in
// one pass. Unknown fields are reported before value conversion so that an
// unknown field with an odd value shape still surfaces as UNKNOWN_FIELD.
func (v *Validator) ValidateJSON(ts *TableSchema, fields map[string]interface{}, mode Mode) *Result {
	errors := []FieldError{}
	payload := make(Payload, len(fields))

	for name, raw := range fields {
		if _, exists := ts.Field(name); !exists {
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("unknown field '%s' for table '%s'", name, ts.Name()),
				Code:    CodeUnknownField,
			})
			continue
		}
		val, err := ValueFromJSON(raw)
		if err != nil {
			errors = append(errors, FieldError{
				Field:   name,
				Message: err.Error(),
				Code:    CodeTypeMismatch,
			})
			continue
		}
		payload[name] = val
	}

	result := v.Validate(ts, payload, mode)
	if len(errors) > 0 {
		result.Valid = false
		result.Payload = nil
		result.Errors = append(errors, result.Errors...)
	}
	return result
}

// checkField validates one present value against its spec and returns the
// value to forward, which differs from the input only for rounded numbers.
// Null values pass every type check: a null clears the field in the store.
func (v *Validator) checkField(name string, val Value, spec FieldSpec) (Value, []FieldError) {
	if val.IsNull() {
		return val, nil
	}

	errors := []FieldError{}

	switch spec.Type {
	case FieldTypeSingleLineText, FieldTypeMultilineText:
		if val.Kind() != KindText {
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("must be a string (got %s)", val.Kind()),
				Code:    CodeTypeMismatch,
			})
		}

	case FieldTypeNumber:
		if val.Kind() != KindNumber {
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("must be a number (got %s)", val.Kind()),
				Code:    CodeTypeMismatch,
			})
			break
		}
		if spec.Precision != nil {
			rounded, exceeded := roundToPrecision(val.Number(), *spec.Precision)
			if exceeded && v.policy == PrecisionReject {
				errors = append(errors, FieldError{
					Field:   name,
					Message: fmt.Sprintf("value exceeds declared precision of %d decimal places", *spec.Precision),
					Code:    CodePrecisionViolation,
				})
				break
			}
			val = Number(rounded)
		}

	case FieldTypeDateTime:
		switch val.Kind() {
		case KindDateTime:
			// Already typed; nothing to parse.
		case KindText:
			if _, ok := parseDateTime(val.Text()); !ok {
				errors = append(errors, FieldError{
					Field:   name,
					Message: "must be a valid date-time string",
					Code:    CodeTypeMismatch,
				})
			}
		default:
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("must be a date-time string (got %s)", val.Kind()),
				Code:    CodeTypeMismatch,
			})
		}

	case FieldTypeEmail:
		if val.Kind() != KindText || !strings.Contains(val.Text(), "@") {
			errors = append(errors, FieldError{
				Field:   name,
				Message: "must be a valid email address",
				Code:    CodeTypeMismatch,
			})
		}

	case FieldTypePhoneNumber:
		if val.Kind() != KindText {
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("must be a phone number string (got %s)", val.Kind()),
				Code:    CodeTypeMismatch,
			})
		}

	case FieldTypeSingleSelect:
		if val.Kind() != KindText {
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("must be a string (got %s)", val.Kind()),
				Code:    CodeTypeMismatch,
			})
			break
		}
		found := false
		for _, option := range spec.Options {
			if val.Text() == option {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, FieldError{
				Field:   name,
				Message: fmt.Sprintf("value must be one of %v", spec.Options),
				Code:    CodeInvalidOption,
			})
		}

	default:
		errors = append(errors, FieldError{
			Field:   name,
			Message: fmt.Sprintf("unsupported field type %s", spec.Type),
			Code:    CodeTypeMismatch,
		})
	}

	return val, errors
}

// roundToPrecision rounds half away from zero to places decimal places and
// reports whether the input carried more precision than declared.
func roundToPrecision(value float64, places int) (float64, bool) {
	if places < 0 {
		places = 0
	}
	shift := math.Pow(10, float64(places))
	rounded := math.Round(value*shift) / shift
	return rounded, rounded != value
}

// dateTimeLayouts covers the ISO 8601 forms the store accepts: RFC 3339,
// seconds or minutes resolution with either 'T' or space separator, and
// bare dates.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDateTime(s string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
