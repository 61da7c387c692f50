package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"socialmedia/internal/http/middleware"
	"socialmedia/internal/logging"
	"socialmedia/internal/notify"
	"socialmedia/internal/store"
	"socialmedia/internal/uploads"
	"socialmedia/internal/web"
	"socialmedia/resources"

	"github.com/google/uuid"
)

// Deps are the collaborators the handlers render and persist through.
type Deps struct {
	Store    store.Store
	TPL      *web.Renderer // built by NewMux when nil
	Uploads  *uploads.Saver
	Notifier notify.Notifier

	LoginLimiter   *middleware.RateLimiter
	SecureCookies  bool
	MaxUploadBytes int64
}

func NewMux(d Deps) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	rend := d.TPL
	if rend == nil {
		var err error
		rend, err = web.NewRenderer()
		if err != nil {
			return nil, err
		}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Noop{}
	}

	mux.Handle("GET /{$}", &HomeHandler{Store: d.Store, TPL: rend})
	mux.Handle("GET /dashboard", middleware.RequireLogin(&DashboardHandler{Store: d.Store, TPL: rend}))
	mux.Handle("POST /post", middleware.RequireLogin(&PostCreateHandler{
		Store:    d.Store,
		TPL:      rend,
		Uploads:  d.Uploads,
		MaxBytes: d.MaxUploadBytes,
	}))
	mux.Handle("GET /profile/{username}", &ProfileHandler{Store: d.Store, TPL: rend})

	forbidden := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, rend, http.StatusForbidden, "Not authorized")
	})
	mux.Handle("GET /admin", middleware.RequireAdmin(forbidden)(&AdminHandler{Store: d.Store, TPL: rend}))

	ah := &AuthHandler{
		Store:         d.Store,
		TPL:           rend,
		Notifier:      d.Notifier,
		LoginLimiter:  d.LoginLimiter,
		SecureCookies: d.SecureCookies,
	}
	ah.Routes(mux)

	if d.Uploads != nil {
		mux.Handle("GET /static/uploads/", http.StripPrefix("/static/uploads/", noListing(http.FileServer(http.Dir(d.Uploads.Dir)))))
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", noListing(http.FileServerFS(resources.FS))))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			logging.From(r.Context()).Warn("http.readyz", "err", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, rend, http.StatusNotFound, "Page not found")
	})

	return mux, nil
}

func WithStandardMiddleware(next http.Handler, users middleware.UserLookup) http.Handler {
	return requestLogger(recoverPanics(securityHeaders(middleware.WithAuth(users)(next))))
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		l := slog.Default().With("request_id", reqID)
		w.Header().Set("X-Request-ID", reqID)

		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), l)))
		l.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *wrapWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *wrapWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}
