package http

import (
	"context"
	"net/http"
	"time"

	"socialmedia/internal/store"
	"socialmedia/internal/web"
)

// AdminHandler lists every account and post. Mounted behind middleware.RequireAdmin.
type AdminHandler struct {
	Store store.Store
	TPL   *web.Renderer
}

type adminContent struct {
	Users []store.User
	Posts []store.Post
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.Store.ListUsers(ctx)
	if err != nil {
		internalError(w, r, h.TPL, "admin.users", err)
		return
	}
	posts, err := h.Store.RecentPosts(ctx, 0)
	if err != nil {
		internalError(w, r, h.TPL, "admin.posts", err)
		return
	}
	render(w, r, h.TPL, http.StatusOK, "admin", "Admin", adminContent{Users: users, Posts: posts})
}
