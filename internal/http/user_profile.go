package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"socialmedia/internal/store"
	"socialmedia/internal/web"
)

type ProfileHandler struct {
	Store store.Store
	TPL   *web.Renderer
}

type profileUser struct {
	Username  string
	IsAdmin   bool
	CreatedAt time.Time
}

type profileContent struct {
	Profile profileUser
	Posts   []store.Post
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Store.UserByUsername(ctx, r.PathValue("username"))
	if errors.Is(err, store.ErrNotFound) {
		renderError(w, r, h.TPL, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(w, r, h.TPL, "profile.user", err)
		return
	}

	posts, err := h.Store.PostsByUser(ctx, u.ID)
	if err != nil {
		internalError(w, r, h.TPL, "profile.posts", err)
		return
	}
	render(w, r, h.TPL, http.StatusOK, "profile", u.Username, profileContent{
		Profile: profileUser{Username: u.Username, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt},
		Posts:   posts,
	})
}
