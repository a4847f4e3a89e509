// Package oidc verifies bearer tokens and turns their payload into a claim set.
package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/userprov/userprov/internal/claims"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Config holds the identity provider settings.
type Config struct {
	IssuerURL         string
	ClientID          string
	SkipClientIDCheck bool
}

// Verifier validates tokens against an OIDC provider's published keys.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at cfg.IssuerURL and builds a verifier.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: cfg.SkipClientIDCheck,
	})
	return &Verifier{verifier: verifier}, nil
}

// NewVerifierWithKeySet builds a verifier from an explicit key set.
// Used when discovery is not available, and in tests.
func NewVerifierWithKeySet(issuer string, keySet oidc.KeySet, cfg Config) *Verifier {
	return &Verifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			ClientID:          cfg.ClientID,
			SkipClientIDCheck: cfg.SkipClientIDCheck,
		}),
	}
}

// Verify checks signature, issuer, audience and expiry, then returns the claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (*claims.Set, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var payload map[string]any
	if err := idToken.Claims(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrInvalidToken, err)
	}

	return claims.FromMap(payload), nil
}
