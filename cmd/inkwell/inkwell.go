package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/dbinit"
	apphttp "inkwell/internal/http"
	"inkwell/internal/logging"
	"inkwell/internal/metrics"
	"inkwell/internal/notify"
	"inkwell/internal/uploads"
)

func main() {
	cfgPath := os.Getenv("CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("config.load", "path", cfgPath, "err", err)
		os.Exit(1)
	}

	l := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(l)

	if cfg.Security.JWTSecret == "change-me" {
		slog.Warn("security.jwt_secret is the default value; set JWT_SECRET in production")
	}
	auth.Configure(cfg.Security.JWTSecret, cfg.Security.SessionTTLHours)

	pgURL, err := cfg.Database.AppURL()
	if err != nil {
		slog.Error("db.url", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	if err := dbinit.EnsureDatabaseAndMigrate(ctx, pgURL, cfg.Database.Name, cfg.Database.User); err != nil {
		slog.Error("db.init", "err", err)
		os.Exit(1)
	}
	slog.Info("db.ready", "name", cfg.Database.Name)

	ctxpool, cancelpool := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancelpool()
	pool, err := db.NewPool(ctxpool, pgURL, cfg.Database.MaxConns)
	if err != nil {
		slog.Error("db.pool", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	files, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes())
	if err != nil {
		slog.Error("uploads.dir", "err", err)
		os.Exit(1)
	}

	// Templates are parsed inside NewMux before we start listening, so a
	// broken template is a startup failure, not a runtime 500.
	mux, err := apphttp.NewMux(pool, notify.Log{Logger: l}, files)
	if err != nil {
		slog.Error("templates.parse", "err", err)
		os.Exit(1)
	}

	m := metrics.New()
	mux.Handle("GET /metrics", m.Handler())

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      apphttp.WithStandardMiddleware(mux, cfg.HTTP, m),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("http.starting", "addr", srv.Addr, "workers", cfg.HTTP.Workers)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http.listen", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http.shutting_down")
	_ = srv.Shutdown(ctx)
	slog.Info("http.stopped")
}
