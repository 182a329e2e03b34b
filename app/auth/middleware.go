package auth

import (
	"net/http"
	"strings"

	"github.com/freelancerking/net32-admin/models"
)

// WantsJSON reports whether the request came from an AJAX-style caller
// that expects a structured reply instead of a redirect.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// UserFromRequest resolves the session cookie to its user, if any.
func UserFromRequest(store *SessionStore, r *http.Request) (models.User, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return models.User{}, false
	}
	return store.Get(cookie.Value)
}

// RequireAuth gates a handler behind a valid session. Browser
// navigation is redirected to the login page; AJAX callers get a
// structured 401.
func RequireAuth(store *SessionStore, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromRequest(store, r); !ok {
			if WantsJSON(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("false"))
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}
