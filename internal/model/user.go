// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the local record of an identity first seen through a verified token.
// Profile data (name, email, roles) is read from claims on every request and
// never stored here.
type User struct {
	ExternalUserID uuid.UUID `json:"externalUserId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewUser builds a User provisioned at the given instant.
// The timestamp is normalised to UTC with microsecond precision so it
// survives a round trip through a TIMESTAMPTZ column unchanged.
func NewUser(externalUserID uuid.UUID, now time.Time) *User {
	return &User{
		ExternalUserID: externalUserID,
		CreatedAt:      now.UTC().Truncate(time.Microsecond),
	}
}

// Validate checks the business rules a User must satisfy before it is persisted.
func (u *User) Validate() error {
	if u.ExternalUserID == uuid.Nil {
		return &ValidationError{Field: "externalUserId", Message: "must not be empty"}
	}
	if u.CreatedAt.IsZero() {
		return &ValidationError{Field: "createdAt", Message: "must be set"}
	}
	return nil
}
