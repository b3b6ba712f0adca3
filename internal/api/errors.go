// Package api provides the HTTP handlers and error conventions for the
// scoring API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kdstats/scoring/internal/middleware"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response.
//
// Format: {"error": {"code": "error_code", "message": "Error description"}}
//
// The error code reaches the access log when the handler derives the
// context via middleware.SetErrorCode and passes it here:
//
//	ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeValidation)
//	api.WriteError(w, ctx, http.StatusBadRequest, api.ErrCodeValidation, "limit must be a positive integer")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.UpdateResponseContext(w, ctx)

	errResp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(errResp)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// StatusCodeMapping returns the recommended HTTP status code for common error codes.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
