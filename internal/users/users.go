// Package users is the data-access layer for accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	RoleReader = "reader"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// User is an account row. PasswordHash is only populated by GetByUsername,
// which exists for credential checks.
type User struct {
	ID           string
	Username     string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleReader || role == RoleAuthor || role == RoleAdmin
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db querier
}

func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, `
		select id::text, username, display_name, role, created_at
		from users where id = $1::uuid`, id).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, `
		select id::text, username, display_name, role, password_hash, created_at
		from users where username = $1`, username).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// Create inserts an account and returns its id. A duplicate username maps
// to ErrUsernameTaken.
func (r *Repository) Create(ctx context.Context, username, displayName, passwordHash, role string) (string, error) {
	if !ValidRole(role) {
		return "", fmt.Errorf("invalid role %q", role)
	}
	var id string
	err := r.db.QueryRow(ctx, `
		insert into users (username, display_name, password_hash, role)
		values ($1, $2, $3, $4)
		returning id::text`,
		username, displayName, passwordHash, role).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}
