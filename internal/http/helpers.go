package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"inkwell/internal/web"
)

func loadHeader(ctx context.Context, store UserStore, uid string) web.HeaderData {
	header := web.HeaderData{}
	if uid == "" {
		return header
	}
	ctxHead, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := store.GetByID(ctxHead, uid)
	if err != nil {
		return header
	}
	header.LoggedIn = true
	header.Username = u.Username
	header.DisplayName = u.DisplayName
	header.Role = u.Role
	return header
}

// renderPage renders into a buffer first so a failed render never emits a
// half-written body. Template-not-found maps to 404, everything else to 500.
func renderPage(w http.ResponseWriter, rend *web.Renderer, name string, data any) {
	var buf bytes.Buffer
	if err := rend.Render(&buf, name, data); err != nil {
		if errors.Is(err, web.ErrTemplateNotFound) {
			slog.Warn("render.unknown_template", "name", name)
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		slog.Error("render.failed", "name", name, "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// pageSize resolves a size query parameter: unparsable or non-positive
// values fall back to def, values past max clamp to max.
func pageSize(raw string, def, max int) int {
	n := atoiDefault(raw, def)
	if n < 1 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}
