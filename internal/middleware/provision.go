package middleware

import (
	"context"
	"net/http"

	"github.com/userprov/userprov/internal/auth"
	"github.com/userprov/userprov/internal/claims"
	"github.com/userprov/userprov/internal/model"
)

// Provisioner resolves the local user for a verified claim set.
// A nil result means no user is available for this request.
type Provisioner interface {
	GetOrProvision(ctx context.Context, c *claims.Set) *model.User
}

// ProvisionConfig holds configuration for the provisioning hook.
type ProvisionConfig struct {
	Provisioner Provisioner
	Enabled     bool
}

// Provision makes sure every authenticated caller has a local user row
// before the route handler runs. The request always continues: a caller
// the provisioner could not resolve simply has no user in context.
func Provision(cfg ProvisionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := auth.ClaimsFromContext(r.Context())
			if !cfg.Enabled || !set.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}

			if u := cfg.Provisioner.GetOrProvision(r.Context(), set); u != nil {
				r = r.WithContext(auth.ContextWithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
