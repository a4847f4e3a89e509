package oidc

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/userprov/userprov/internal/claims"
)

// HMACVerifier validates HS256-signed tokens with a shared secret.
// Intended for local development where no identity provider runs.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewHMACVerifier creates an HMACVerifier. An empty issuer disables the issuer check.
func NewHMACVerifier(secret []byte, issuer string) *HMACVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &HMACVerifier{secret: secret, parser: jwt.NewParser(opts...)}
}

// Verify checks the signature and standard time claims, then returns the claims.
func (v *HMACVerifier) Verify(ctx context.Context, raw string) (*claims.Set, error) {
	mc := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, mc, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims.FromMap(mc), nil
}
