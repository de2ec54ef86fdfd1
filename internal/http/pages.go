package http

import (
	"net/http"

	"inkwell/internal/http/middleware"
	"inkwell/internal/web"
)

// PageHandler serves the static form pages (login, signup). Status comes
// from the query string so redirects can surface form outcomes.
type PageHandler struct {
	Users UserStore
	TPL   *web.Renderer
	Name  string
	Title string
}

type formContent struct {
	Title  string
	Status string
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	header := loadHeader(r.Context(), h.Users, middleware.UserID(r))
	renderPage(w, h.TPL, h.Name, web.Page[formContent]{
		Header: header,
		Content: formContent{
			Title:  h.Title,
			Status: r.URL.Query().Get("status"),
		},
	})
}
