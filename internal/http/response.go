package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fitlog/internal/core"
)

type errorResponse struct {
	Error  string           `json:"error"`
	Fields core.FieldErrors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "Write response failed", "error", err, "path", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

func writeFieldErrors(w http.ResponseWriter, r *http.Request, fe core.FieldErrors) {
	writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fe})
}

// statusFor maps tracker errors to a response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidDateKey):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNegativeCount), errors.Is(err, core.ErrInvalidHoldDuration):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeTrackerError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "could not save changes"
	}
	writeError(w, r, status, msg)
}
