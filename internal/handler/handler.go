// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/userprov/userprov/internal/claims"
	"github.com/userprov/userprov/internal/model"
	"github.com/userprov/userprov/internal/repository"
)

// Handler serves the router's fallback responses.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// ErrorResponse is the JSON envelope of every error reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code next to the HTTP status.
type ErrorDetail struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Status: status, Message: message}})
}

// writeServiceError translates domain and storage errors into HTTP replies.
// Unknown errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var validation *model.ValidationError

	switch {
	case errors.Is(err, claims.ErrMissingIdentity):
		writeError(w, http.StatusBadRequest, "MISSING_IDENTITY", "Token carries no subject identifier")
	case errors.Is(err, claims.ErrMalformedIdentity):
		writeError(w, http.StatusBadRequest, "MALFORMED_IDENTITY", "Subject identifier is not a valid UUID")
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", validation.Error())
	case errors.Is(err, repository.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "Invalid argument")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE", "User already exists")
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "Concurrent modification, retry the request")
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
