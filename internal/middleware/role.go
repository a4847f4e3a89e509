package middleware

import (
	"net/http"

	"github.com/userprov/userprov/internal/auth"
)

// RequireRole returns middleware that admits only callers holding role
// under any of the membership claims. Must be applied after Authenticate.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := auth.ClaimsFromContext(r.Context())
			if !set.IsAuthenticated() {
				writeUnauthorized(w)
				return
			}

			if !auth.HasRequiredRole(set, role) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions. Required role: "+role)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
