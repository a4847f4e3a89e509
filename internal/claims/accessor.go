package claims

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Standard claim type URIs. Some identity providers emit these instead of
// the short JWT names, so every accessor checks both.
const (
	ClaimTypeNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	ClaimTypeEmail          = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	ClaimTypeName           = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

// Short JWT claim names.
const (
	ClaimSubject           = "sub"
	ClaimEmail             = "email"
	ClaimName              = "name"
	ClaimPreferredUsername = "preferred_username"
	ClaimGroups            = "groups"
	ClaimRoles             = "roles"
	ClaimRole              = "role"
)

// Claim extraction errors.
var (
	ErrMissingIdentity   = errors.New("missing identity claim")
	ErrMalformedIdentity = errors.New("malformed identity claim")
)

// firstOf returns the first value found under any of types, tried in order.
func (s *Set) firstOf(types ...string) (string, bool) {
	for _, t := range types {
		if v, ok := s.First(t); ok {
			return v, true
		}
	}
	return "", false
}

// SubjectID returns the caller's subject identifier.
// The name-identifier claim wins over sub when both are present.
func (s *Set) SubjectID() (uuid.UUID, error) {
	raw, ok := s.firstOf(ClaimTypeNameIdentifier, ClaimSubject)
	if !ok {
		return uuid.Nil, ErrMissingIdentity
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q: %v", ErrMalformedIdentity, raw, err)
	}
	return id, nil
}

// Email returns the caller's email, or "" when no email claim exists.
func (s *Set) Email() string {
	v, _ := s.firstOf(ClaimTypeEmail, ClaimEmail)
	return v
}

// DisplayName returns the caller's display name, or "" when none exists.
func (s *Set) DisplayName() string {
	v, _ := s.firstOf(ClaimTypeName, ClaimPreferredUsername, ClaimName)
	return v
}

// Groups returns every groups value in assertion order.
func (s *Set) Groups() []string {
	return s.All(ClaimGroups)
}

// Roles returns every roles and role value, roles first.
func (s *Set) Roles() []string {
	return append(s.All(ClaimRoles), s.All(ClaimRole)...)
}
