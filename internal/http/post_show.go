package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"inkwell/internal/http/middleware"
	"inkwell/internal/posts"
	"inkwell/internal/web"
)

type PostShowHandler struct {
	Posts PostStore
	Users UserStore
	TPL   *web.Renderer
}

type postContent struct {
	Title string
	Post  posts.Post
}

func (h *PostShowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Posts.GetBySlug(ctx, slug)
	if errors.Is(err, posts.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("post.get", "slug", slug, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	header := loadHeader(r.Context(), h.Users, middleware.UserID(r))
	renderPage(w, h.TPL, "post", web.Page[postContent]{
		Header:  header,
		Content: postContent{Title: p.Title, Post: p},
	})
}
