// Package auth carries the verified caller identity through a request and
// evaluates role requirements against it.
package auth

import (
	"context"

	"github.com/userprov/userprov/internal/claims"
	"github.com/userprov/userprov/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	claimsContextKey contextKey = "claims"
	userContextKey   contextKey = "provisioned_user"
)

// ContextWithClaims attaches the verified claim set to the context.
func ContextWithClaims(ctx context.Context, c *claims.Set) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

// ClaimsFromContext retrieves the claim set from the context.
// Returns nil if the request is unauthenticated.
func ClaimsFromContext(ctx context.Context) *claims.Set {
	c, ok := ctx.Value(claimsContextKey).(*claims.Set)
	if !ok {
		return nil
	}
	return c
}

// ContextWithUser attaches the provisioned local user to the context.
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the provisioned user, or nil if none was attached.
func UserFromContext(ctx context.Context) *model.User {
	u, ok := ctx.Value(userContextKey).(*model.User)
	if !ok {
		return nil
	}
	return u
}

// SubjectFromContext is a convenience for log attributes.
// Returns "" when no parseable subject is present.
func SubjectFromContext(ctx context.Context) string {
	c := ClaimsFromContext(ctx)
	if c == nil {
		return ""
	}
	id, err := c.SubjectID()
	if err != nil {
		return ""
	}
	return id.String()
}
