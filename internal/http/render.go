package http

import (
	"bytes"
	"net/http"

	"socialmedia/internal/http/middleware"
	"socialmedia/internal/logging"
	"socialmedia/internal/web"
)

// viewer maps the signed-in account onto the layout's navbar user.
func viewer(r *http.Request) *web.User {
	u := middleware.CurrentUser(r)
	if u == nil {
		return nil
	}
	return &web.User{Username: u.Username, IsAdmin: u.IsAdmin}
}

// render buffers the page so a template failure can still become a clean 500.
func render[T any](w http.ResponseWriter, r *http.Request, tpl *web.Renderer, status int, name, title string, content T) {
	page := web.Page[T]{Title: title, User: viewer(r), Content: content}
	var buf bytes.Buffer
	if err := tpl.Render(&buf, name, page); err != nil {
		logging.From(r.Context()).Error("http.render", "page", name, "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

type errorContent struct {
	Status     int
	StatusText string
	Message    string
}

func renderError(w http.ResponseWriter, r *http.Request, tpl *web.Renderer, status int, msg string) {
	text := http.StatusText(status)
	render(w, r, tpl, status, "error", text, errorContent{Status: status, StatusText: text, Message: msg})
}

// internalError logs err under event and renders a generic 500 page.
func internalError(w http.ResponseWriter, r *http.Request, tpl *web.Renderer, event string, err error) {
	logging.From(r.Context()).Error(event, "err", err)
	renderError(w, r, tpl, http.StatusInternalServerError, "Something went wrong. Please try again.")
}
