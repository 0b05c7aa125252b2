package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestBoardErrorFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      *BoardError
		wantErr  string
		wantUser string
	}{
		{
			name:     "what only",
			err:      &BoardError{What: "something broke"},
			wantErr:  "something broke",
			wantUser: "Error: something broke",
		},
		{
			name:     "what and why",
			err:      &BoardError{What: "something broke", Why: "bad input"},
			wantErr:  "something broke: bad input",
			wantUser: "Error: something broke\n\nWhy: bad input",
		},
		{
			name: "full error",
			err: &BoardError{
				What: "something broke",
				Why:  "bad input",
				Fix:  "try again",
			},
			wantErr:  "something broke: bad input",
			wantUser: "Error: something broke\n\nWhy: bad input\n\nFix: try again",
		},
		{
			name: "with cause",
			err: &BoardError{
				What:  "something broke",
				Cause: errors.New("underlying error"),
			},
			wantErr:  "something broke: underlying error",
			wantUser: "Error: something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantErr {
				t.Errorf("Error() = %q, want %q", got, tt.wantErr)
			}
			if got := tt.err.UserMessage(); got != tt.wantUser {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestBoardErrorJSON(t *testing.T) {
	err := ErrInvalidTransition("T-1", "backlog", "done", []string{"in_progress", "canceled"}).
		WithCause(errors.New("table lookup"))

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("MarshalJSON failed: %v", marshalErr)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if result["code"] != string(CodeInvalidTransition) {
		t.Errorf("code = %v, want %v", result["code"], CodeInvalidTransition)
	}
	if result["cause"] != "table lookup" {
		t.Errorf("cause = %v, want %v", result["cause"], "table lookup")
	}
	details, ok := result["details"].(map[string]any)
	if !ok {
		t.Fatalf("details missing: %v", result)
	}
	allowed, ok := details["allowed_transitions"].([]any)
	if !ok || len(allowed) != 2 {
		t.Errorf("allowed_transitions = %v, want 2 entries", details["allowed_transitions"])
	}
}

func TestErrInvalidTransition_NilAllowedIsEmptyList(t *testing.T) {
	err := ErrInvalidTransition("T-1", "done", "backlog", nil)

	allowed, ok := err.Details["allowed_transitions"].([]string)
	if !ok {
		t.Fatalf("allowed_transitions has type %T", err.Details["allowed_transitions"])
	}
	if allowed == nil || len(allowed) != 0 {
		t.Errorf("allowed_transitions = %v, want empty non-nil slice", allowed)
	}
}

func TestErrConflictDetails(t *testing.T) {
	err := ErrConflict("T-9", 1, 2)

	if err.Details["expected_version"] != int64(1) {
		t.Errorf("expected_version = %v, want 1", err.Details["expected_version"])
	}
	if err.Details["current_version"] != int64(2) {
		t.Errorf("current_version = %v, want 2", err.Details["current_version"])
	}
	if !err.Retryable() {
		t.Error("conflict should be retryable")
	}
}

func TestOnlyConflictIsRetryable(t *testing.T) {
	for _, err := range []*BoardError{
		ErrValidation("to_status", "required"),
		ErrTaskNotFound("X"),
		ErrForbidden("X"),
		ErrProjectStatusRestricted("P", "archived"),
		ErrInvalidTransition("X", "a", "b", nil),
		ErrDependenciesIncomplete("X", []string{"Y"}),
		ErrReasonRequired("a", "b"),
	} {
		if err.Retryable() {
			t.Errorf("%s should not be retryable", err.Code)
		}
	}
}

func TestErrDependenciesIncompleteDetails(t *testing.T) {
	err := ErrDependenciesIncomplete("T-1", []string{"T-2", "T-3"})

	deps, ok := err.Details["dependencies"].([]string)
	if !ok {
		t.Fatalf("dependencies has type %T", err.Details["dependencies"])
	}
	if len(deps) != 2 || deps[0] != "T-2" || deps[1] != "T-3" {
		t.Errorf("dependencies = %v, want [T-2 T-3]", deps)
	}
}

func TestErrorCodeUniqueness(t *testing.T) {
	codes := []Code{
		CodeValidation,
		CodeNotFound,
		CodeForbidden,
		CodeProjectStatusRestricted,
		CodeConflict,
		CodeInvalidTransition,
		CodeDependenciesIncomplete,
		CodeReasonRequired,
		CodeUnauthenticated,
		CodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("duplicate error code: %s", code)
		}
		seen[code] = true
		if _, ok := codeCategories[code]; !ok {
			t.Errorf("code %s has no category", code)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err        *BoardError
		wantStatus int
	}{
		{ErrValidation("version", "must be positive"), 400},
		{ErrUnauthenticated(), 401},
		{ErrForbidden("X"), 403},
		{ErrTaskNotFound("X"), 404},
		{ErrProjectNotFound("P"), 404},
		{ErrConflict("X", 1, 2), 409},
		{ErrInvalidTransition("X", "a", "b", nil), 422},
		{ErrDependenciesIncomplete("X", nil), 422},
		{ErrReasonRequired("a", "b"), 422},
		{ErrProjectStatusRestricted("P", "archived"), 423},
		{Wrap(errors.New("db down"), "load task"), 500},
		{&BoardError{Code: "made_up"}, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := ErrTaskNotFound("X").WithCause(cause)

	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestWithCause(t *testing.T) {
	original := ErrTaskNotFound("T-1")
	cause := errors.New("no rows")
	wrapped := original.WithCause(cause)

	if wrapped.Cause != cause {
		t.Error("WithCause should set the cause")
	}
	if original.Cause != nil {
		t.Error("Original should not be modified")
	}
	if wrapped.Code != original.Code {
		t.Error("Code should be copied")
	}
	if wrapped.What != original.What {
		t.Error("What should be copied")
	}
	if wrapped.Details["task_id"] != "T-1" {
		t.Error("Details should be copied")
	}
}

func TestIs(t *testing.T) {
	err1 := ErrTaskNotFound("T-1")
	err2 := ErrTaskNotFound("T-2")
	err3 := ErrForbidden("T-1")

	if !errors.Is(err1, err2) {
		t.Error("errors with same code should match with Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match")
	}
}

func TestAsBoardError(t *testing.T) {
	boardErr := ErrTaskNotFound("X")

	if AsBoardError(boardErr) == nil {
		t.Error("AsBoardError should return the error")
	}

	wrapped := fmt.Errorf("move: %w", boardErr)
	if AsBoardError(wrapped) != boardErr {
		t.Error("AsBoardError should find a wrapped BoardError")
	}

	if AsBoardError(errors.New("regular error")) != nil {
		t.Error("AsBoardError should return nil for non-BoardError")
	}

	if AsBoardError(nil) != nil {
		t.Error("AsBoardError should return nil for nil error")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(cause, "operation failed")

	if err.What != "operation failed" {
		t.Errorf("What = %v, want 'operation failed'", err.What)
	}
	if err.Cause != cause {
		t.Error("Cause should be set")
	}
	if err.Code != CodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, CodeInternal)
	}
}
