package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"expenseintel/internal/core"
)

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{
		Success: status < 400,
		Message: message,
		Data:    data,
	}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, "Operation successful", data)
}

// writeError maps the error taxonomy to status codes. Anything unclassified
// is a 500 with a generic message; the real error goes to the log only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, core.ErrForbidden):
		writeJSON(w, http.StatusForbidden, "Permission denied", nil)
	case errors.Is(err, core.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, "Unauthorized", nil)
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, message, nil)
}

// decodeBody rejects unknown fields so typos fail loudly instead of being
// silently dropped.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
