// Package middleware provides HTTP middleware components for the scoring API server.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP header carrying the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength caps client-supplied IDs. The ID flows into every log
// line for the request, so an oversized value is replaced rather than kept.
const maxRequestIDLength = 64

type requestIDKey struct{}

// RequestID tags each request with a correlation ID. A usable client-supplied
// X-Request-ID is kept so callers can trace their own requests; anything
// missing or oversized is replaced with a fresh UUID. The final ID is stored
// in the context and echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the correlation ID for the request, or the empty
// string when the middleware did not run.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
