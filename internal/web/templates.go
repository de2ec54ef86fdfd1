// Package web renders HTML pages from embedded templates.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
)

//go:embed tpl
var tplFS embed.FS

// ErrTemplateNotFound reports a render request for a page that has no
// compiled template.
var ErrTemplateNotFound = errors.New("template not found")

// Renderer holds the compiled template set. All pages are parsed once at
// construction; a syntax error is a deploy-time failure, not a request-time
// one. The page map is read-only after NewRenderer returns.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page under tpl/pages together with the shared
// base and partials, keyed by the page file name (e.g. "home").
func NewRenderer() (*Renderer, error) {
	entries, err := fs.ReadDir(tplFS, "tpl/pages")
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tmpl") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".tmpl")
		t := template.New(name).Funcs(funcMap()).Funcs(sprig.FuncMap())
		if _, err := t.ParseFS(tplFS, "tpl/base.tmpl", "tpl/partials/*.tmpl"); err != nil {
			return nil, fmt.Errorf("parse shared templates: %w", err)
		}
		if _, err := t.ParseFS(tplFS, path.Join("tpl/pages", e.Name())); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = t
	}
	if len(pages) == 0 {
		return nil, errors.New("no page templates found")
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the page named name, substituted with data, to w.
// An unknown name returns ErrTemplateNotFound.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return t.ExecuteTemplate(w, name, data)
}

// Pages lists the available page names.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for n := range r.pages {
		names = append(names, n)
	}
	return names
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"nowUTC":     func() time.Time { return time.Now().UTC() },
		"formatDate": formatDate,
		"excerpt":    excerpt,
	}
}

// formatDate accepts both time.Time and *time.Time so optional timestamps
// render without template-side dereferencing.
func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("Jan 2, 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format("Jan 2, 2006")
	default:
		return ""
	}
}

// excerpt trims body to at most n runes on a word boundary.
func excerpt(n int, body string) string {
	runes := []rune(body)
	if n <= 0 || len(runes) <= n {
		return body
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
