package model

import (
	"fmt"
	"strings"
)

// Validation error codes.
const (
	CodeMissingRequired = "MISSING_REQUIRED"
	CodeInvalidType     = "INVALID_TYPE"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeBelowMinimum    = "BELOW_MINIMUM"
	CodeAboveMaximum    = "ABOVE_MAXIMUM"
	CodeInvalidValue    = "INVALID_VALUE"
)

// ValidationError is a single field-level problem found in a record.
type ValidationError struct {
	Page    Page   `json:"page"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s.%s: %s", e.Page, e.Field, e.Message)
}

// ValidationErrors is the ordered result of validating a record. Empty means
// the record can be submitted.
type ValidationErrors []ValidationError

// Valid reports whether there are no errors.
func (es ValidationErrors) Valid() bool {
	return len(es) == 0
}

// ForField returns the error for the given page field, if any.
func (es ValidationErrors) ForField(page Page, field string) (ValidationError, bool) {
	for _, e := range es {
		if e.Page == page && e.Field == field {
			return e, true
		}
	}
	return ValidationError{}, false
}

// ForPage returns the errors belonging to one page.
func (es ValidationErrors) ForPage(page Page) ValidationErrors {
	var out ValidationErrors
	for _, e := range es {
		if e.Page == page {
			out = append(out, e)
		}
	}
	return out
}

// Error joins all messages, so a non-empty list can be returned as an error.
func (es ValidationErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}
