// Package posts is the data-access layer for blog content.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrSlugTaken = errors.New("slug already taken")
)

// Post is one unit of displayed content.
type Post struct {
	ID            int64
	Slug          string
	Title         string
	Body          string
	Tags          []string
	AllowComments bool
	Pinned        bool
	AuthorID      string
	AuthorName    string
	PublishedAt   time.Time
	UpdatedAt     *time.Time
}

// querier is the slice of pool behavior the repository needs. Both
// *pgxpool.Pool and pgxmock satisfy it.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository runs post queries against Postgres.
type Repository struct {
	db querier
}

func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

const postColumns = `
	p.id, p.slug, p.title, p.body, p.tags, p.allow_comments, p.pinned,
	u.id::text, u.display_name, p.published_at, p.updated_at`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Tags, &p.AllowComments,
		&p.Pinned, &p.AuthorID, &p.AuthorName, &p.PublishedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("scan post: %w", err)
	}
	return p, nil
}

// GetByID returns one post or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (Post, error) {
	row := r.db.QueryRow(ctx, `
		select `+postColumns+`
		from posts p
		join users u on u.id = p.author_id
		where p.id = $1`, id)
	return scanPost(row)
}

// GetBySlug returns one post or ErrNotFound.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (Post, error) {
	row := r.db.QueryRow(ctx, `
		select `+postColumns+`
		from posts p
		join users u on u.id = p.author_id
		where p.slug = $1`, slug)
	return scanPost(row)
}

// ListCursor fetches posts with seek pagination: pass the id of the last
// post from the previous page, or 0 for the first page. The returned cursor
// is 0 when no further page exists. The sort key is strictly p.id so the
// seek predicate matches it; ordering by pinned first would let a pinned
// row reappear on every page once the cursor passed its id.
func (r *Repository) ListCursor(ctx context.Context, limit int, lastSeenID int64) ([]Post, int64, error) {
	if limit < 1 {
		limit = 20
	}
	args := []any{limit + 1}
	cond := ""
	if lastSeenID > 0 {
		cond = "where p.id < $2"
		args = append(args, lastSeenID)
	}
	rows, err := r.db.Query(ctx, `
		select `+postColumns+`
		from posts p
		join users u on u.id = p.author_id
		`+cond+`
		order by p.id desc
		limit $1`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var list []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts rows: %w", err)
	}

	var next int64
	if len(list) > limit {
		list = list[:limit]
		next = list[len(list)-1].ID
	}
	return list, next, nil
}

// ListBetween returns posts published inside [after, before].
func (r *Repository) ListBetween(ctx context.Context, after, before time.Time) ([]Post, error) {
	if before.Before(after) {
		return nil, errors.New("time range is inverted")
	}
	rows, err := r.db.Query(ctx, `
		select `+postColumns+`
		from posts p
		join users u on u.id = p.author_id
		where p.published_at >= $1 and p.published_at <= $2
		order by p.published_at asc`, after, before)
	if err != nil {
		return nil, fmt.Errorf("list posts by time: %w", err)
	}
	defer rows.Close()

	var list []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts rows: %w", err)
	}
	return list, nil
}

// Create inserts a post and returns its id. The slug is derived from the
// title; a duplicate slug maps to ErrSlugTaken.
func (r *Repository) Create(ctx context.Context, authorID, title, body string, tags []string, allowComments bool) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		insert into posts (author_id, slug, title, body, tags, allow_comments)
		values ($1::uuid, $2, $3, $4, $5, $6)
		returning id`,
		authorID, Slugify(title), title, body, tags, allowComments).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrSlugTaken
		}
		return 0, fmt.Errorf("create post: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of upd. Only a fixed subset of columns
// can change; everything else is ignored by construction.
type Update struct {
	Title         *string
	Body          *string
	AllowComments *bool
	Pinned        *bool
}

func (r *Repository) Update(ctx context.Context, id int64, upd Update) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
		add("slug", Slugify(*upd.Title))
	}
	if upd.Body != nil {
		add("body", *upd.Body)
	}
	if upd.AllowComments != nil {
		add("allow_comments", *upd.AllowComments)
	}
	if upd.Pinned != nil {
		add("pinned", *upd.Pinned)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	tag, err := r.db.Exec(ctx, `
		update posts set `+strings.Join(sets, ", ")+`
		where id = $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlugTaken
		}
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
