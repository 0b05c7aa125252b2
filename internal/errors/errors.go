// Package errors provides structured error types for taskboard.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique, machine-readable error code.
type Code string

// Error codes returned by the move engine and the API.
const (
	CodeValidation              Code = "validation_error"
	CodeNotFound                Code = "not_found"
	CodeForbidden               Code = "forbidden"
	CodeProjectStatusRestricted Code = "project_status_restricted"
	CodeConflict                Code = "conflict"
	CodeInvalidTransition       Code = "invalid_transition"
	CodeDependenciesIncomplete  Code = "dependencies_incomplete"
	CodeReasonRequired          Code = "reason_required"

	// Raised by the transport layer before the engine runs.
	CodeUnauthenticated Code = "unauthenticated"

	// Storage or other unexpected failures.
	CodeInternal Code = "internal"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryBadRequest
	CategoryUnauthenticated
	CategoryForbidden
	CategoryNotFound
	CategoryConflict
	CategoryUnprocessable
	CategoryLocked
	CategoryInternal
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeValidation:              CategoryBadRequest,
	CodeNotFound:                CategoryNotFound,
	CodeForbidden:               CategoryForbidden,
	CodeProjectStatusRestricted: CategoryLocked,
	CodeConflict:                CategoryConflict,
	CodeInvalidTransition:       CategoryUnprocessable,
	CodeDependenciesIncomplete:  CategoryUnprocessable,
	CodeReasonRequired:          CategoryUnprocessable,
	CodeUnauthenticated:         CategoryUnauthenticated,
	CodeInternal:                CategoryInternal,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryBadRequest:
		return 400
	case CategoryUnauthenticated:
		return 401
	case CategoryForbidden:
		return 403
	case CategoryNotFound:
		return 404
	case CategoryConflict:
		return 409
	case CategoryUnprocessable:
		return 422
	case CategoryLocked:
		return 423
	default:
		return 500
	}
}

// BoardError is the structured rejection type for every failed move.
type BoardError struct {
	Code    Code           `json:"code"`
	What    string         `json:"what"`
	Why     string         `json:"why,omitempty"`
	Fix     string         `json:"fix,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error implements the error interface.
func (e *BoardError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *BoardError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *BoardError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category for HTTP status mapping.
func (e *BoardError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *BoardError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// Retryable reports whether the caller may retry after re-reading state.
// Only version conflicts qualify.
func (e *BoardError) Retryable() bool {
	return e.Code == CodeConflict
}

// MarshalJSON implements json.Marshaler.
func (e *BoardError) MarshalJSON() ([]byte, error) {
	type alias BoardError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a BoardError with the same code.
func (e *BoardError) Is(target error) bool {
	t, ok := target.(*BoardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *BoardError) WithCause(err error) *BoardError {
	return &BoardError{
		Code:    e.Code,
		What:    e.What,
		Why:     e.Why,
		Fix:     e.Fix,
		Details: e.Details,
		Cause:   err,
	}
}

// --- Error constructors ---

// ErrValidation returns an error for a malformed move request.
func ErrValidation(field, reason string) *BoardError {
	return &BoardError{
		Code:    CodeValidation,
		What:    fmt.Sprintf("invalid %s", field),
		Why:     reason,
		Fix:     "Correct the request body and send it again",
		Details: map[string]any{"field": field, "reason": reason},
	}
}

// ErrTaskNotFound returns an error when a task doesn't exist.
func ErrTaskNotFound(id string) *BoardError {
	return &BoardError{
		Code:    CodeNotFound,
		What:    fmt.Sprintf("task %s not found", id),
		Why:     "No task with this ID exists",
		Details: map[string]any{"task_id": id},
	}
}

// ErrProjectNotFound returns an error when a task's owning project is missing.
func ErrProjectNotFound(id string) *BoardError {
	return &BoardError{
		Code:    CodeNotFound,
		What:    fmt.Sprintf("project %s not found", id),
		Details: map[string]any{"project_id": id},
	}
}

// ErrForbidden returns an error when a task belongs to another tenant.
func ErrForbidden(taskID string) *BoardError {
	return &BoardError{
		Code:    CodeForbidden,
		What:    fmt.Sprintf("task %s is not accessible", taskID),
		Why:     "The task belongs to a different tenant than the caller",
		Details: map[string]any{"task_id": taskID},
	}
}

// ErrProjectStatusRestricted returns an error when the owning project forbids mutation.
func ErrProjectStatusRestricted(projectID, status string) *BoardError {
	return &BoardError{
		Code: CodeProjectStatusRestricted,
		What: fmt.Sprintf("project %s does not allow task changes", projectID),
		Why:  fmt.Sprintf("Project status is '%s'", status),
		Fix:  "Reactivate the project before moving its tasks",
		Details: map[string]any{
			"project_id":     projectID,
			"project_status": status,
		},
	}
}

// ErrConflict returns an error for an optimistic version mismatch.
func ErrConflict(taskID string, expected, current int64) *BoardError {
	return &BoardError{
		Code: CodeConflict,
		What: fmt.Sprintf("task %s was modified concurrently", taskID),
		Why:  fmt.Sprintf("Expected version %d but the task is at version %d", expected, current),
		Fix:  "Reload the task and retry with the current version",
		Details: map[string]any{
			"task_id":          taskID,
			"expected_version": expected,
			"current_version":  current,
		},
	}
}

// ErrInvalidTransition returns an error for a move outside the transition table.
// allowed is attached verbatim so clients can offer the legal choices.
func ErrInvalidTransition(taskID, from, to string, allowed []string) *BoardError {
	if allowed == nil {
		allowed = []string{}
	}
	return &BoardError{
		Code: CodeInvalidTransition,
		What: fmt.Sprintf("task %s cannot move from '%s' to '%s'", taskID, from, to),
		Why:  "The transition is not part of the workflow",
		Details: map[string]any{
			"from":                from,
			"to":                  to,
			"allowed_transitions": allowed,
		},
	}
}

// ErrDependenciesIncomplete returns an error listing dependencies that are not done.
func ErrDependenciesIncomplete(taskID string, pending []string) *BoardError {
	return &BoardError{
		Code:    CodeDependenciesIncomplete,
		What:    fmt.Sprintf("task %s has incomplete dependencies", taskID),
		Why:     fmt.Sprintf("%d dependency task(s) are not done", len(pending)),
		Fix:     "Complete the listed tasks first",
		Details: map[string]any{"dependencies": pending},
	}
}

// ErrReasonRequired returns an error when a transition needs a justification.
func ErrReasonRequired(from, to string) *BoardError {
	return &BoardError{
		Code:    CodeReasonRequired,
		What:    fmt.Sprintf("moving from '%s' to '%s' requires a reason", from, to),
		Fix:     "Provide a non-empty reason of at most 500 characters",
		Details: map[string]any{"from": from, "to": to},
	}
}

// ErrUnauthenticated returns an error for requests without caller identity.
func ErrUnauthenticated() *BoardError {
	return &BoardError{
		Code: CodeUnauthenticated,
		What: "authentication required",
		Why:  "The request carries no tenant identity",
	}
}

// AsBoardError attempts to convert an error to a BoardError.
// Returns nil if the error is not a BoardError.
func AsBoardError(err error) *BoardError {
	var boardErr *BoardError
	if As(err, &boardErr) {
		return boardErr
	}
	return nil
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool {
	return asError(err, target)
}

// asError implements errors.As behavior.
func asError(err error, target any) bool {
	if err == nil {
		return false
	}
	if boardErr, ok := err.(*BoardError); ok {
		if t, ok := target.(**BoardError); ok {
			*t = boardErr
			return true
		}
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return asError(unwrapper.Unwrap(), target)
	}
	return false
}

// Wrap wraps a generic error into a BoardError with the internal code.
func Wrap(err error, what string) *BoardError {
	return &BoardError{
		Code:  CodeInternal,
		What:  what,
		Cause: err,
	}
}
