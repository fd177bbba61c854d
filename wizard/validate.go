package wizard

import (
	"fmt"
	"regexp"

	"github.com/formflow/formflow/model"
)

// FieldError describes why a single field failed validation.
type FieldError struct {
	FieldID string `json:"field_id"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Message)
}

// ValidationErrors is the set of field errors blocking a submit.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d fields failed validation", len(e))
}

// ValidateField checks one field's answer against its own rules. Returns
// nil when the field passes. Visibility is the caller's concern: an
// invisible field must never reach this function (its required flag would
// otherwise block progress, see ValidateAll).
func ValidateField(field model.Field, answer any) *FieldError {
	if field.Required && empty(answer) {
		return &FieldError{field.ID, field.Label, "is required"}
	}
	if empty(answer) || field.Validation == nil {
		return nil
	}

	v := field.Validation
	if n, ok := numeric(answer); ok {
		if v.Min != nil && n < *v.Min {
			return &FieldError{field.ID, field.Label, fmt.Sprintf("minimum value is %v", *v.Min)}
		}
		if v.Max != nil && n > *v.Max {
			return &FieldError{field.ID, field.Label, fmt.Sprintf("maximum value is %v", *v.Max)}
		}
	}
	if v.Pattern != "" && field.Type != model.FieldFile {
		// an invalid pattern cannot be satisfied or diagnosed by the
		// respondent, so it is skipped rather than enforced
		re, err := regexp.Compile(v.Pattern)
		if err == nil && !re.MatchString(text(answer)) {
			return &FieldError{field.ID, field.Label, "invalid format"}
		}
	}
	return nil
}

// ValidateAll validates every visible field across all steps.
// Visibility gating is logically prior to required-validation: a field
// hidden by its conditions is never rendered, so it can never fail.
func ValidateAll(steps []model.Step, answers model.AnswerSet) ValidationErrors {
	var errs ValidationErrors
	for _, step := range steps {
		for _, field := range step.Fields {
			if !IsVisible(field, answers) {
				continue
			}
			if err := ValidateField(field, answers[field.ID]); err != nil {
				errs = append(errs, *err)
			}
		}
	}
	return errs
}

func empty(v any) bool {
	switch a := v.(type) {
	case nil:
		return true
	case string:
		return a == ""
	case []string:
		return len(a) == 0
	case []any:
		return len(a) == 0
	default:
		return false
	}
}
