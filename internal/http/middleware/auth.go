package middleware

import (
	"context"
	"net/http"

	"inkwell/internal/auth"
)

type ctxKey string

const CtxUserID ctxKey = "user_id"

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

// WithAuth resolves the session cookie into a user id on the request
// context. An absent or invalid cookie leaves the request anonymous.
func WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		if uid, err := auth.ParseToken(c.Value); err == nil && uid != "" {
			ctx := context.WithValue(r.Context(), CtxUserID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := UserID(r); uid != "" {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(r *http.Request) string {
	if v, ok := r.Context().Value(CtxUserID).(string); ok {
		return v
	}
	return ""
}
