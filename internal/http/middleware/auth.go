package middleware

import (
	"context"
	"errors"
	"net/http"

	"socialmedia/internal/auth"
	"socialmedia/internal/logging"
	"socialmedia/internal/store"
)

// SessionCookie carries the signed session token.
const SessionCookie = "session"

type ctxKey string

const ctxUser ctxKey = "user"

// UserLookup resolves the subject of a session token.
type UserLookup interface {
	UserByID(ctx context.Context, id int64) (store.User, error)
}

// WithAuth resolves the session cookie to a stored user. Requests with a
// missing or invalid token, or whose user no longer exists, continue anonymously.
func WithAuth(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			uid, err := auth.ParseToken(c.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			u, err := users.UserByID(r.Context(), uid)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					logging.From(r.Context()).Error("auth.lookup", "user_id", uid, "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUser, &u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin sends anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) != nil {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

// CurrentUser returns the signed-in user, or nil.
func CurrentUser(r *http.Request) *store.User {
	if u, ok := r.Context().Value(ctxUser).(*store.User); ok {
		return u
	}
	return nil
}
