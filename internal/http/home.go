package http

import (
	"context"
	"net/http"
	"time"

	"socialmedia/internal/store"
	"socialmedia/internal/web"
)

// feedSize is how many posts the home page shows.
const feedSize = 20

type HomeHandler struct {
	Store store.Store
	TPL   *web.Renderer
}

type homeContent struct {
	Posts []store.Post
}

func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	posts, err := h.Store.RecentPosts(ctx, feedSize)
	if err != nil {
		internalError(w, r, h.TPL, "home.posts", err)
		return
	}
	render(w, r, h.TPL, http.StatusOK, "index", "", homeContent{Posts: posts})
}
