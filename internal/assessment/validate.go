package assessment

import (
	"fmt"
	"strconv"

	"github.com/sells-group/flash-cli/internal/model"
)

// Validate checks every page of rec in wizard order. An empty result means
// the record can be submitted.
func Validate(rec model.AssessmentRecord) model.ValidationErrors {
	var errs model.ValidationErrors
	for _, p := range model.Pages {
		errs = append(errs, ValidatePage(p, rec.Group(p))...)
	}
	return errs
}

// ValidatePage checks one page's answers against its rule table. At most one
// error is reported per field.
func ValidatePage(page model.Page, g model.Group) model.ValidationErrors {
	var errs model.ValidationErrors
	for i := range rules[page] {
		r := &rules[page][i]
		if code, msg := r.check(g[r.Field], g); code != "" {
			errs = append(errs, model.ValidationError{
				Page:    page,
				Field:   r.Field,
				Code:    code,
				Message: msg,
			})
		}
	}
	return errs
}

func (r *Rule) check(v any, g model.Group) (code, msg string) {
	if isBlank(v) {
		if !r.Required {
			return "", ""
		}
		if r.Message != "" {
			return model.CodeMissingRequired, r.Message
		}
		return model.CodeMissingRequired, r.Label + " is required"
	}

	if r.Numeric || r.Min != nil || r.Max != nil {
		n, ok := toFloat(v)
		if !ok {
			return model.CodeInvalidType, r.Label + " must be a number"
		}
		if r.Min != nil && n < *r.Min {
			return model.CodeBelowMinimum, fmt.Sprintf("%s must be at least %s", r.Label, formatBound(*r.Min))
		}
		if r.Max != nil && n > *r.Max {
			return model.CodeAboveMaximum, fmt.Sprintf("%s must be at most %s", r.Label, formatBound(*r.Max))
		}
	}

	if r.Pattern != nil {
		if s, ok := v.(string); ok && !r.Pattern.MatchString(s) {
			return model.CodeInvalidFormat, r.Label + " is not in a valid format"
		}
	}

	if r.Custom != nil {
		if m := r.Custom(v, g); m != "" {
			return model.CodeInvalidValue, m
		}
	}
	return "", ""
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
