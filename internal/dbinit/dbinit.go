// Package dbinit creates the application database and applies migrations.
package dbinit

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations
var migrationsFS embed.FS

// EnsureDatabaseAndMigrate ensures targetDB exists, then connects to it and
// applies embedded SQL migrations in filename order. appConn is the
// application connection URL; database creation goes through the cluster's
// "postgres" maintenance DB, so the URL's user needs CREATE DATABASE rights
// on a fresh cluster.
func EnsureDatabaseAndMigrate(ctx context.Context, appConn, targetDB, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	adminConn, err := replaceDBName(appConn, "postgres")
	if err != nil {
		return err
	}
	admin, err := pgx.Connect(ctx, adminConn)
	if err != nil {
		return fmt.Errorf("admin connect: %w", err)
	}
	defer admin.Close(ctx)

	var exists bool
	if err := admin.QueryRow(ctx,
		`select exists (select 1 from pg_database where datname = $1)`, targetDB,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check database existence: %w", err)
	}

	if !exists {
		createStmt := fmt.Sprintf(`create database "%s"`, targetDB)
		if owner != "" {
			createStmt += fmt.Sprintf(` with owner "%s"`, owner)
		}
		if _, err := admin.Exec(ctx, createStmt); err != nil {
			return fmt.Errorf("create database %q: %w", targetDB, err)
		}
	}

	targetConn, err := replaceDBName(appConn, targetDB)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, targetConn)
	if err != nil {
		return fmt.Errorf("target connect: %w", err)
	}
	defer conn.Close(ctx)

	lockKey := int64(0x696e6b77) // 'inkw' namespace
	if _, err := conn.Exec(ctx, `select pg_advisory_lock($1)`, lockKey); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	defer conn.Exec(context.Background(), `select pg_advisory_unlock($1)`, lockKey)

	if _, err := conn.Exec(ctx, `
		create table if not exists schema_migrations (
			filename   text primary key,
			applied_at timestamptz not null default now()
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	files, err := migrationFiles()
	if err != nil {
		return err
	}

	for _, f := range files {
		var done bool
		if err := conn.QueryRow(ctx,
			`select exists (select 1 from schema_migrations where filename = $1)`, f,
		).Scan(&done); err != nil {
			return fmt.Errorf("check applied %s: %w", f, err)
		}
		if done {
			continue
		}
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if err := applyOne(ctx, conn, f, string(sqlBytes)); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(ctx context.Context, conn *pgx.Conn, name, body string) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, body); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx,
		`insert into schema_migrations (filename) values ($1)`, name); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func replaceDBName(conn, dbName string) (string, error) {
	u, err := url.Parse(conn)
	if err != nil {
		return "", fmt.Errorf("parse conn url: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}
