// Package response provides the JSON response envelope shared by every
// handler in internal/httpapi/handler, grounded on the teacher's
// internal/http/response package shape.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corewave/jobengine/internal/domain"
)

// OK sends a 200 OK response with JSON data.
func OK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("response: failed to encode OK body", "error", err)
	}
}

// Created sends a 201 Created response with JSON data.
func Created(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("response: failed to encode Created body", "error", err)
	}
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ErrorResponse is the standard error response envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details,omitempty"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error sends a generic JSON error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{ //nolint:errcheck
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationFailed sends a 400 validation error with field details.
func ValidationFailed(w http.ResponseWriter, field, issue string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{ //nolint:errcheck
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: []ErrorField{{Field: field, Issue: issue}},
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// Unavailable sends a 503 Service Unavailable error.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, "UNAVAILABLE", message, http.StatusServiceUnavailable)
}

// InternalError logs err server-side and returns a generic message to the
// client, to avoid leaking internals.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "response: internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// FromDomainError maps a domain/store error onto the appropriate HTTP
// response, following the teacher's FromDomainError switch-on-errors.Is
// shape.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve domain.ValidationError
	var ce domain.ConflictError

	switch {
	case errors.As(err, &ve):
		ValidationFailed(w, ve.Field, ve.Reason)
	case errors.Is(err, domain.ErrValidation):
		BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "job")
	case errors.As(err, &ce):
		Conflict(w, ce.Error())
	case errors.Is(err, domain.ErrConflict):
		Conflict(w, err.Error())
	case domain.IsTransient(err):
		Unavailable(w, "storage or transport temporarily unavailable")
	default:
		InternalError(w, r, err)
	}
}
