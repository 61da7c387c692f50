package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"socialmedia/internal/auth"
	"socialmedia/internal/store"
)

// Usernames end up in /profile/{username} links.
var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,32}$`)
	// "." and ".." would be cleaned out of the profile path
	usernameAlnumRe = regexp.MustCompile(`[A-Za-z0-9]`)
)

const minPasswordLen = 6

type registerContent struct {
	Username string
	Email    string
	Error    string
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.TPL, http.StatusOK, "register", "Register", registerContent{})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, r, h.TPL, http.StatusBadRequest, "register", "Register", registerContent{Error: "Could not read the form."})
		return
	}
	content := registerContent{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
	}
	password := r.PostForm.Get("password")

	if msg := validateRegistration(content.Username, content.Email, password); msg != "" {
		content.Error = msg
		render(w, r, h.TPL, http.StatusBadRequest, "register", "Register", content)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		internalError(w, r, h.TPL, "register.hash", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Store.CreateUser(ctx, store.NewUser{
		Username:     content.Username,
		Email:        content.Email,
		PasswordHash: hash,
		AdminIfFirst: true,
	})
	if errors.Is(err, store.ErrDuplicate) {
		content.Error = "Username or email already registered"
		render(w, r, h.TPL, http.StatusBadRequest, "register", "Register", content)
		return
	}
	if err != nil {
		internalError(w, r, h.TPL, "register.create", err)
		return
	}

	msg := fmt.Sprintf("New account registered: %s (%s)", u.Username, u.Email)
	if u.IsAdmin {
		msg += ", granted admin as the first account"
	}
	h.Notifier.NotifyAdmins(ctx, msg)

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// validateRegistration returns a user-facing message, or "" when the input is acceptable.
func validateRegistration(username, email, password string) string {
	if username == "" || email == "" || password == "" {
		return "Username, email and password are required."
	}
	if !usernameRe.MatchString(username) {
		return "Usernames may only contain letters, digits, '.', '-' and '_' (at most 32)."
	}
	if !usernameAlnumRe.MatchString(username) {
		return "Usernames need at least one letter or digit."
	}
	if a, err := mail.ParseAddress(email); err != nil || a.Address != email {
		return "Please enter a valid email address."
	}
	if len([]rune(password)) < minPasswordLen {
		return fmt.Sprintf("Passwords need at least %d characters.", minPasswordLen)
	}
	return ""
}
