// Package http wires the route table and middleware chain.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/config"
	"inkwell/internal/http/middleware"
	"inkwell/internal/metrics"
	"inkwell/internal/notify"
	"inkwell/internal/posts"
	"inkwell/internal/uploads"
	"inkwell/internal/users"
	"inkwell/internal/web"
)

// PostStore is the slice of the posts repository the handlers use.
type PostStore interface {
	ListCursor(ctx context.Context, limit int, lastSeenID int64) ([]posts.Post, int64, error)
	ListBetween(ctx context.Context, after, before time.Time) ([]posts.Post, error)
	GetBySlug(ctx context.Context, slug string) (posts.Post, error)
	GetByID(ctx context.Context, id int64) (posts.Post, error)
	Create(ctx context.Context, authorID, title, body string, tags []string, allowComments bool) (int64, error)
	Update(ctx context.Context, id int64, upd posts.Update) error
}

// UserStore is the slice of the users repository the handlers use.
type UserStore interface {
	GetByID(ctx context.Context, id string) (users.User, error)
	GetByUsername(ctx context.Context, username string) (users.User, error)
	Create(ctx context.Context, username, displayName, passwordHash, role string) (string, error)
}

// NewMux builds the route table over pool. Renderer construction fails only
// on template defects, which are deploy-time errors.
func NewMux(pool *pgxpool.Pool, notifier notify.Notifier, files *uploads.Store) (*http.ServeMux, error) {
	rend, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	postRepo := posts.NewRepository(pool)
	userRepo := users.NewRepository(pool)
	return buildMux(postRepo, userRepo, rend, notifier, files), nil
}

func buildMux(postStore PostStore, userStore UserStore, rend *web.Renderer, notifier notify.Notifier, files *uploads.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /", &HomeHandler{Posts: postStore, Users: userStore, TPL: rend})
	mux.Handle("GET /blog", &HomeHandler{Posts: postStore, Users: userStore, TPL: rend, PublicOnly: true})
	mux.Handle("GET /posts/{slug}", &PostShowHandler{Posts: postStore, Users: userStore, TPL: rend})
	mux.Handle("GET /login", &PageHandler{Users: userStore, TPL: rend, Name: "login", Title: "Login"})
	mux.Handle("GET /signup", &PageHandler{Users: userStore, TPL: rend, Name: "signup", Title: "Sign Up"})
	mux.Handle("POST /register", &RegisterHandler{Users: userStore, Notifier: notifier})
	mux.Handle("POST /upload/single", middleware.RequireAuth(&UploadHandler{Files: files}))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	ah := &AuthHandler{
		Users:        userStore,
		LoginLimiter: middleware.NewRateLimiter(10, time.Minute),
	}
	ah.Routes(mux)

	pa := &PostsAPIHandler{Posts: postStore, Users: userStore}
	pa.Routes(mux)

	return mux
}

// WithStandardMiddleware wraps next in the full serving chain. The
// concurrency gate and per-request timeout come straight from the resolved
// WORKERS and TIMEOUT settings.
func WithStandardMiddleware(next http.Handler, httpCfg config.HTTPConfig, m *metrics.Metrics) http.Handler {
	next = middleware.WithAuth(next)
	next = middleware.LimitConcurrency(httpCfg.Workers, next)
	next = http.TimeoutHandler(next, httpCfg.RequestTimeout(), "request timed out")
	next = securityHeaders(next)
	next = recoverPanics(next)
	if m != nil {
		next = m.Instrument(next)
	}
	next = requestLogger(next)
	return middleware.WithRequestID(next)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		slog.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.RequestID(r),
		)
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("http.panic",
					"path", r.URL.Path,
					"panic", rec,
					"request_id", middleware.RequestID(r),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
