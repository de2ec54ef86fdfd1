package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const CtxRequestID ctxKey = "request_id"

// RequestIDHeader carries the id to and from clients.
const RequestIDHeader = "X-Request-ID"

// WithRequestID assigns every request an id for tracing. A reasonable
// client-supplied id is honored, anything else gets a fresh UUID.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), CtxRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the id assigned to r, or "".
func RequestID(r *http.Request) string {
	if v, ok := r.Context().Value(CtxRequestID).(string); ok {
		return v
	}
	return ""
}
