package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"socialmedia/internal/auth"
	"socialmedia/internal/http/middleware"
	"socialmedia/internal/notify"
	"socialmedia/internal/store"
	"socialmedia/internal/web"
)

type AuthHandler struct {
	Store         store.Store
	TPL           *web.Renderer
	Notifier      notify.Notifier
	LoginLimiter  *middleware.RateLimiter
	SecureCookies bool
}

func (h *AuthHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.Handle("POST /login", middleware.Limit(h.LoginLimiter, http.HandlerFunc(h.Login)))
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("GET /register", h.RegisterPage)
	mux.HandleFunc("POST /register", h.Register)
}

type loginContent struct {
	Username string
	Error    string
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.TPL, http.StatusOK, "login", "Login", loginContent{})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, r, h.TPL, http.StatusBadRequest, "login", "Login", loginContent{Error: "Could not read the form."})
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		render(w, r, h.TPL, http.StatusBadRequest, "login", "Login",
			loginContent{Username: username, Error: "Username and password are required."})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Store.UserByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		internalError(w, r, h.TPL, "auth.login", err)
		return
	}
	if err != nil || !auth.CheckPassword(password, u.PasswordHash) {
		render(w, r, h.TPL, http.StatusUnauthorized, "login", "Login",
			loginContent{Username: username, Error: "Invalid username or password"})
		return
	}

	token, err := auth.IssueToken(u.ID)
	if err != nil {
		internalError(w, r, h.TPL, "auth.token", err)
		return
	}
	h.setSession(w, token, time.Now().Add(auth.SessionTTL))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSession(w, "", time.Unix(0, 0))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setSession writes the session cookie; an empty token clears it.
func (h *AuthHandler) setSession(w http.ResponseWriter, token string, expires time.Time) {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
	if token == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}
