package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"inkwell/internal/http/middleware"
	"inkwell/internal/posts"
	"inkwell/internal/web"
)

type HomeHandler struct {
	Posts PostStore
	Users UserStore
	TPL   *web.Renderer

	// PublicOnly serves the teaser page: no records are loaded.
	PublicOnly bool
}

type homeContent struct {
	Title   string
	Posts   []posts.Post
	NextURL string
}

func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	header := loadHeader(r.Context(), h.Users, middleware.UserID(r))

	if h.PublicOnly {
		renderPage(w, h.TPL, "home", web.Page[homeContent]{
			Header:  header,
			Content: homeContent{Title: "Blog"},
		})
		return
	}

	q := r.URL.Query()
	size := pageSize(q.Get("size"), 10, 50)
	after := int64(atoiDefault(q.Get("after"), 0))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, next, err := h.Posts.ListCursor(ctx, size, after)
	if err != nil {
		slog.Error("home.list", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	content := homeContent{Posts: list}
	if next > 0 {
		content.NextURL = "/?after=" + strconv.FormatInt(next, 10) + "&size=" + strconv.Itoa(size)
	}

	renderPage(w, h.TPL, "home", web.Page[homeContent]{Header: header, Content: content})
}
