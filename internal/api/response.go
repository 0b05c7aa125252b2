// Package api provides the REST and WebSocket server for the task board.
package api

import (
	"encoding/json"
	"net/http"

	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
)

// APIError is the standard error response format.
type APIError struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// jsonResponse writes a successful JSON response.
func jsonResponse(w http.ResponseWriter, data any) {
	jsonResponseStatus(w, data, http.StatusOK)
}

// jsonResponseStatus writes a JSON response with a specific status code.
func jsonResponseStatus(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// handleError writes err as an APIError. Board errors keep their code and
// details; anything else is reported as an internal error without leaking
// its message.
func handleError(w http.ResponseWriter, err error) {
	be := boarderrors.AsBoardError(err)
	if be == nil {
		be = boarderrors.Wrap(err, "unexpected error")
	}

	body := APIError{
		Error:   be.What,
		Code:    string(be.Code),
		Details: be.Details,
	}
	if be.Code == boarderrors.CodeInternal {
		body.Details = nil
	}
	jsonResponseStatus(w, body, be.HTTPStatus())
}
