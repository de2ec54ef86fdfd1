package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/http/middleware"
	"inkwell/internal/posts"
	"inkwell/internal/users"
)

// PostsAPIHandler is the JSON surface over the posts repository.
type PostsAPIHandler struct {
	Posts PostStore
	Users UserStore
}

func (h *PostsAPIHandler) Routes(mux *http.ServeMux) {
	mux.Handle("POST /api/v1/posts", middleware.RequireAuth(http.HandlerFunc(h.Create)))
	mux.HandleFunc("GET /api/v1/posts", h.List)
	mux.HandleFunc("GET /api/v1/posts/{id}", h.Get)
	mux.Handle("PATCH /api/v1/posts/{id}", middleware.RequireAuth(http.HandlerFunc(h.Update)))
}

type postCreateReq struct {
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Tags          []string `json:"tags"`
	AllowComments bool     `json:"allow_comments"`
}

type postResp struct {
	ID            int64    `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Tags          []string `json:"tags"`
	AllowComments bool     `json:"allow_comments"`
	Author        string   `json:"author"`
	PublishedAt   string   `json:"published_at"`
}

func toPostResp(p posts.Post) postResp {
	return postResp{
		ID:            p.ID,
		Slug:          p.Slug,
		Title:         p.Title,
		Body:          p.Body,
		Tags:          p.Tags,
		AllowComments: p.AllowComments,
		Author:        p.AuthorName,
		PublishedAt:   p.PublishedAt.UTC().Format(time.RFC3339),
	}
}

func (h *PostsAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if u.Role != users.RoleAuthor && u.Role != users.RoleAdmin {
		http.Error(w, "authors only", http.StatusForbidden)
		return
	}

	var req postCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Body) == "" {
		http.Error(w, "title and body are required", http.StatusBadRequest)
		return
	}

	id, err := h.Posts.Create(ctx, uid, req.Title, req.Body, req.Tags, req.AllowComments)
	if errors.Is(err, posts.ErrSlugTaken) {
		http.Error(w, "a post with this title already exists", http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("posts.create", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":   id,
		"slug": posts.Slugify(req.Title),
	})
}

func (h *PostsAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size := pageSize(q.Get("size"), 20, 100)
	after := int64(atoiDefault(q.Get("after"), 0))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		list []posts.Post
		next int64
		err  error
	)
	if q.Get("from") != "" || q.Get("to") != "" {
		// Time-ranged listing bypasses the cursor.
		from, errFrom := time.Parse(time.RFC3339, q.Get("from"))
		to, errTo := time.Parse(time.RFC3339, q.Get("to"))
		if errFrom != nil || errTo != nil || to.Before(from) {
			http.Error(w, "from and to must be RFC3339 timestamps with from <= to", http.StatusBadRequest)
			return
		}
		list, err = h.Posts.ListBetween(ctx, from, to)
	} else {
		list, next, err = h.Posts.ListCursor(ctx, size, after)
	}
	if err != nil {
		slog.Error("posts.list", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	resp := struct {
		Posts []postResp `json:"posts"`
		Next  int64      `json:"next,omitempty"`
	}{Posts: make([]postResp, 0, len(list)), Next: next}
	for _, p := range list {
		resp.Posts = append(resp.Posts, toPostResp(p))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *PostsAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "bad post id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, id)
	if errors.Is(err, posts.ErrNotFound) {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("posts.get", "id", id, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toPostResp(p))
}

type postUpdateReq struct {
	Title         *string `json:"title"`
	Body          *string `json:"body"`
	AllowComments *bool   `json:"allow_comments"`
	Pinned        *bool   `json:"pinned"`
}

// Update applies a partial edit. Only the post's author or an admin may
// touch it; absent fields are left as they are.
func (h *PostsAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "bad post id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	p, err := h.Posts.GetByID(ctx, id)
	if errors.Is(err, posts.ErrNotFound) {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("posts.update.get", "id", id, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if p.AuthorID != u.ID && u.Role != users.RoleAdmin {
		http.Error(w, "not your post", http.StatusForbidden)
		return
	}

	var req postUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		http.Error(w, "title must not be blank", http.StatusBadRequest)
		return
	}
	if req.Body != nil && strings.TrimSpace(*req.Body) == "" {
		http.Error(w, "body must not be blank", http.StatusBadRequest)
		return
	}

	err = h.Posts.Update(ctx, id, posts.Update{
		Title:         req.Title,
		Body:          req.Body,
		AllowComments: req.AllowComments,
		Pinned:        req.Pinned,
	})
	if errors.Is(err, posts.ErrNotFound) {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("posts.update", "id", id, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
