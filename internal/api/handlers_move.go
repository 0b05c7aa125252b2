package api

import (
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/randalmurphal/taskboard/internal/board"
	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
	"github.com/randalmurphal/taskboard/internal/task"
)

// maxMoveBodyBytes bounds a move request body.
const maxMoveBodyBytes = 64 << 10

// taskResponse is the wire form of a task after a read or a move.
type taskResponse struct {
	ID              string      `json:"id"`
	ProjectID       string      `json:"project_id"`
	Title           string      `json:"title"`
	Status          task.Status `json:"status"`
	Version         int64       `json:"version"`
	Order           float64     `json:"order"`
	ProgressPercent float64     `json:"progress_percent"`
	Dependencies    []string    `json:"dependencies"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func newTaskResponse(t *task.Task) taskResponse {
	deps := t.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return taskResponse{
		ID:              t.ID,
		ProjectID:       t.ProjectID,
		Title:           t.Title,
		Status:          t.Status,
		Version:         t.Version,
		Order:           t.Order,
		ProgressPercent: t.ProgressPercent,
		Dependencies:    deps,
		UpdatedAt:       t.UpdatedAt,
	}
}

// handleMoveTask applies a move to one task.
func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMoveBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, boarderrors.ErrValidation("body", "request body too large"))
			return
		}
		handleError(w, boarderrors.ErrValidation("body", "could not read request body"))
		return
	}

	req, err := parseMoveRequest(body)
	if err != nil {
		handleError(w, err)
		return
	}

	caller := callerFrom(r.Context())
	updated, err := s.coordinator.Move(r.Context(), caller, r.PathValue("id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	// Read-your-writes for the mover; other viewers are covered by the
	// event subscription.
	s.boards.Invalidate(caller.TenantID, updated.ProjectID)
	jsonResponse(w, newTaskResponse(updated))
}

// parseMoveRequest checks the body's shape before decoding it, so a
// missing or mistyped field is a validation error rather than a zero value.
func parseMoveRequest(body []byte) (board.MoveRequest, error) {
	if !gjson.ValidBytes(body) {
		return board.MoveRequest{}, boarderrors.ErrValidation("body", "must be valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return board.MoveRequest{}, boarderrors.ErrValidation("body", "must be a JSON object")
	}

	toStatus := root.Get("to_status")
	if !toStatus.Exists() || toStatus.Type == gjson.Null {
		return board.MoveRequest{}, boarderrors.ErrValidation("to_status", "is required")
	}
	if toStatus.Type != gjson.String {
		return board.MoveRequest{}, boarderrors.ErrValidation("to_status", "must be a string")
	}

	version := root.Get("version")
	if !version.Exists() || version.Type == gjson.Null {
		return board.MoveRequest{}, boarderrors.ErrValidation("version", "is required")
	}
	if version.Type != gjson.Number || version.Num != math.Trunc(version.Num) ||
		math.Abs(version.Num) > math.MaxInt64 {
		return board.MoveRequest{}, boarderrors.ErrValidation("version", "must be an integer")
	}

	req := board.MoveRequest{
		ToStatus: toStatus.String(),
		Version:  version.Int(),
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"reason", &req.Reason},
		{"before_id", &req.BeforeID},
		{"after_id", &req.AfterID},
	} {
		v := root.Get(f.name)
		switch v.Type {
		case gjson.Null:
		case gjson.String:
			*f.dst = v.String()
		default:
			return board.MoveRequest{}, boarderrors.ErrValidation(f.name, "must be a string")
		}
	}
	return req, nil
}
