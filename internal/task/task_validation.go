package task

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error returns a combined error message.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ToError returns an error if there are validation errors, nil otherwise.
func (e ValidationErrors) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validate checks the stored-state invariants of a task.
func (t *Task) Validate() ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(t.ID) == "" {
		errs = append(errs, ValidationError{Field: "id", Message: "is required"})
	}
	if strings.TrimSpace(t.TenantID) == "" {
		errs = append(errs, ValidationError{Field: "tenant_id", Message: "is required"})
	}
	if strings.TrimSpace(t.ProjectID) == "" {
		errs = append(errs, ValidationError{Field: "project_id", Message: "is required"})
	}
	if !IsValidStatus(t.Status) {
		errs = append(errs, ValidationError{
			Field:   "status",
			Value:   string(t.Status),
			Message: "invalid status",
		})
	}
	if t.Version < InitialVersion {
		errs = append(errs, ValidationError{
			Field:   "version",
			Value:   fmt.Sprint(t.Version),
			Message: "must be at least 1",
		})
	}
	if t.ProgressPercent < 0 || t.ProgressPercent > 100 {
		errs = append(errs, ValidationError{
			Field:   "progress_percent",
			Value:   fmt.Sprint(t.ProgressPercent),
			Message: "must be between 0 and 100",
		})
	}
	for _, dep := range t.Dependencies {
		if dep == t.ID {
			errs = append(errs, ValidationError{
				Field:   "dependencies",
				Value:   dep,
				Message: "task cannot depend on itself",
			})
		}
	}

	return errs
}

// ValidateReason checks a transition justification. Empty is accepted here;
// whether a reason is mandatory depends on the transition.
func ValidateReason(reason string) error {
	if n := utf8.RuneCountInString(reason); n > MaxReasonLength {
		return ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("must be at most %d characters, got %d", MaxReasonLength, n),
		}
	}
	return nil
}

// HasReason reports whether reason carries any non-whitespace text.
func HasReason(reason string) bool {
	return strings.TrimSpace(reason) != ""
}
