package auth

import (
	"strings"

	"github.com/userprov/userprov/internal/claims"
)

// DefaultAdminRole is the role required for administrative endpoints.
const DefaultAdminRole = "admin"

// roleClaimTypes lists every claim name a provider may use for membership.
var roleClaimTypes = []string{claims.ClaimGroups, claims.ClaimRoles, claims.ClaimRole}

// HasRequiredRole reports whether role appears under groups, roles or role,
// compared case-insensitively.
func HasRequiredRole(c *claims.Set, role string) bool {
	if role == "" || c == nil {
		return false
	}

	for _, typ := range roleClaimTypes {
		for _, v := range c.All(typ) {
			if strings.EqualFold(v, role) {
				return true
			}
		}
	}
	return false
}
