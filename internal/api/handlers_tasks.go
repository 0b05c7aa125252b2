package api

import (
	"net/http"
	"strconv"

	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/task"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// handleGetTask returns a single task.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.coordinator.GetTask(r.Context(), callerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, newTaskResponse(t))
}

// handleTaskEvents returns the persisted move history of a task.
func (s *Server) handleTaskEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxEventLimit {
			handleError(w, boarderrors.ErrValidation("limit", "must be an integer between 1 and "+strconv.Itoa(maxEventLimit)))
			return
		}
		limit = n
	}

	caller := callerFrom(r.Context())
	t, err := s.coordinator.GetTask(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	history, err := s.backend.ListEvents(r.Context(), caller.TenantID, t.ID, limit)
	if err != nil {
		handleError(w, boarderrors.Wrap(err, "load task events"))
		return
	}
	if history == nil {
		history = []events.Event{}
	}
	jsonResponse(w, map[string]any{"task_id": t.ID, "events": history})
}

// handleGetBoard returns every column of a project in display order.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	view, err := s.boards.Get(r.Context(), callerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, view)
}

// handleListTransitions returns the workflow so clients can offer only
// legal targets.
func (s *Server) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	var gated []task.Status
	for _, st := range task.ValidStatuses() {
		if task.RequiresDependencies(st) {
			gated = append(gated, st)
		}
	}
	jsonResponse(w, map[string]any{
		"statuses":         task.ValidStatuses(),
		"transitions":      task.Table(),
		"dependency_gated": gated,
	})
}
