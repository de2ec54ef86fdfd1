package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/http/middleware"
	"inkwell/internal/users"
)

type AuthHandler struct {
	Users        UserStore
	LoginLimiter *middleware.RateLimiter
}

func (h *AuthHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.Handle("GET /api/v1/auth/me", middleware.RequireAuth(http.HandlerFunc(h.Me)))
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type meResp struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Login accepts both the JSON API shape and the login form. Form requests
// answer with redirects back to the page, API requests with status codes.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	fromForm := !strings.Contains(r.Header.Get("Content-Type"), "application/json")

	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(middleware.ClientIP(r)) {
		if fromForm {
			http.Redirect(w, r, "/login?status=ratelimited", http.StatusSeeOther)
			return
		}
		http.Error(w, "too many attempts", http.StatusTooManyRequests)
		return
	}

	var req loginReq
	if fromForm {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/login?status=invalid", http.StatusSeeOther)
			return
		}
		req.Username = r.Form.Get("username")
		req.Password = r.Form.Get("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.loginFailure(w, r, fromForm)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil || !auth.CheckPassword(req.Password, u.PasswordHash) {
		h.loginFailure(w, r, fromForm)
		return
	}

	token, err := auth.IssueToken(u.ID)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, token, time.Now().Add(auth.SessionTTL()))

	if fromForm {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) loginFailure(w http.ResponseWriter, r *http.Request, fromForm bool) {
	if fromForm {
		http.Redirect(w, r, "/login?status=invalid", http.StatusSeeOther)
		return
	}
	http.Error(w, "invalid credentials", http.StatusUnauthorized)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	setSessionCookie(w, "", time.Unix(0, 0))
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, users.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meResp{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	})
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
	if token == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}
