package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"socialmedia/internal/http/middleware"
	"socialmedia/internal/logging"
	"socialmedia/internal/store"
	"socialmedia/internal/uploads"
	"socialmedia/internal/web"
)

type DashboardHandler struct {
	Store store.Store
	TPL   *web.Renderer
}

type dashboardContent struct {
	Notice string
	Posts  []store.Post
}

// post=<status> set by PostCreateHandler redirects
var postNotices = map[string]string{
	"missing":  "Write something before publishing.",
	"badimage": "Images must be PNG, JPEG, GIF or WebP files.",
	"toolarge": "That image is too large.",
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := middleware.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	posts, err := h.Store.PostsByUser(ctx, u.ID)
	if err != nil {
		internalError(w, r, h.TPL, "dashboard.posts", err)
		return
	}
	render(w, r, h.TPL, http.StatusOK, "dashboard", "Dashboard", dashboardContent{
		Notice: postNotices[r.URL.Query().Get("post")],
		Posts:  posts,
	})
}

type PostCreateHandler struct {
	Store    store.Store
	TPL      *web.Renderer
	Uploads  *uploads.Saver
	MaxBytes int64
}

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

func (h *PostCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := middleware.CurrentUser(r)
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+formOverhead)
	}

	err := r.ParseMultipartForm(8 << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Redirect(w, r, "/dashboard?post=toolarge", http.StatusSeeOther)
			return
		}
		renderError(w, r, h.TPL, http.StatusBadRequest, "Could not read the form.")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		http.Redirect(w, r, "/dashboard?post=missing", http.StatusSeeOther)
		return
	}

	imagePath, status, err := h.saveImage(r)
	if err != nil {
		internalError(w, r, h.TPL, "post.image", err)
		return
	}
	if status != "" {
		http.Redirect(w, r, "/dashboard?post="+status, http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Store.CreatePost(ctx, store.NewPost{UserID: u.ID, Content: content, ImagePath: imagePath})
	if err != nil {
		if imagePath != "" {
			_ = h.Uploads.Remove(imagePath)
		}
		internalError(w, r, h.TPL, "post.create", err)
		return
	}
	logging.From(r.Context()).Info("post.created", "post_id", p.ID, "user", u.Username, "image", imagePath != "")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// saveImage stores the optional "image" file. A non-empty status is a
// user-facing rejection to redirect with; err is reserved for server faults.
func (h *PostCreateHandler) saveImage(r *http.Request) (path, status string, err error) {
	if r.MultipartForm == nil {
		return "", "", nil
	}
	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", "", nil
	}
	if err != nil {
		return "", "badimage", nil
	}
	defer file.Close()
	if hdr.Filename == "" || hdr.Size == 0 {
		return "", "", nil
	}
	if h.Uploads == nil {
		return "", "", errors.New("uploads not configured")
	}

	path, err = h.Uploads.Save(hdr.Filename, file)
	switch {
	case errors.Is(err, uploads.ErrUnsupportedType):
		return "", "badimage", nil
	case errors.Is(err, uploads.ErrTooLarge):
		return "", "toolarge", nil
	case err != nil:
		return "", "", err
	}
	return path, "", nil
}
