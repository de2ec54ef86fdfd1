package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/notify"
	"inkwell/internal/users"
)

type RegisterHandler struct {
	Users    UserStore
	Notifier notify.Notifier
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/signup?status=error", http.StatusSeeOther)
		return
	}
	username := strings.TrimSpace(r.Form.Get("username"))
	displayName := strings.TrimSpace(r.Form.Get("display_name"))
	password := r.Form.Get("password")
	if username == "" || displayName == "" || password == "" {
		http.Redirect(w, r, "/signup?status=missing", http.StatusSeeOther)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		http.Redirect(w, r, "/signup?status=error", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.Create(ctx, username, displayName, hash, users.RoleReader); err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			http.Redirect(w, r, "/signup?status=exists", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/signup?status=error", http.StatusSeeOther)
		return
	}

	if h.Notifier != nil {
		h.Notifier.NotifyAdmins(ctx, fmt.Sprintf("New account: %s (%s)", username, displayName))
	}

	http.Redirect(w, r, "/signup?status=ok", http.StatusSeeOther)
}
