package engine

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gscho/graphql-engine/pkg/command"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`

	// Violations is set for invalid-payload errors.
	Violations []command.Violation `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Error: message})
}

// writeDispatchError maps dispatcher errors onto HTTP responses. Request
// taxonomy errors are the caller's fault; anything else is a handler
// failure.
func (s *Server) writeDispatchError(w http.ResponseWriter, commandName string, err error) {
	var invalid *command.InvalidPayloadError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:       "invalid-payload",
			Error:      invalid.Error(),
			Violations: invalid.Violations,
		})
	case errors.Is(err, command.ErrUnknownCommand):
		writeError(w, http.StatusBadRequest, "not-exists", err.Error())
	case errors.Is(err, command.ErrUnknownBackend):
		writeError(w, http.StatusBadRequest, "unknown-backend", err.Error())
	case !command.IsRequestError(err):
		s.logger.Errorf("command %s hit a startup failure: %v", commandName, err)
		writeError(w, http.StatusInternalServerError, "startup-failed", err.Error())
	default:
		s.logger.Errorf("command %s failed: %v", commandName, err)
		writeError(w, http.StatusInternalServerError, "unexpected", err.Error())
	}
}
