package middleware

import "net/http"

// IsAdmin reports whether the request is made by an admin.
func IsAdmin(r *http.Request) bool {
	u := CurrentUser(r)
	return u != nil && u.IsAdmin
}

// RequireAdmin passes admins through to next and everyone else to forbidden.
func RequireAdmin(forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsAdmin(r) {
				next.ServeHTTP(w, r)
				return
			}
			forbidden.ServeHTTP(w, r)
		})
	}
}
