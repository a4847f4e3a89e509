package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/userprov/userprov/internal/auth"
	"github.com/userprov/userprov/internal/claims"
)

// TokenVerifier turns a raw bearer token into a verified claim set.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*claims.Set, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
}

// Authenticate verifies the bearer token, if any, and attaches its claims
// to the request context.
//
// Requests without a token pass through unauthenticated so that public
// routes keep working; RequireAuthenticated guards the rest. A token that
// is present but fails verification is rejected with 401.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, present := bearerToken(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}

			set, err := cfg.Verifier.Verify(r.Context(), raw)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("error", err.Error()),
					slog.String("ip", clientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeUnauthorized(w)
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), set)
			if subject := auth.SubjectFromContext(ctx); subject != "" {
				setLogSubject(ctx, subject)
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("subject", auth.SubjectFromContext(ctx)),
				slog.Int("claims", set.Len()),
				slog.String("request_id", GetRequestID(ctx)),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated rejects requests that carry no verified claims.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.ClaimsFromContext(r.Context()).IsAuthenticated() {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// present is true whenever an Authorization header was sent, even if it is
// not a usable bearer token, so that malformed credentials are rejected
// rather than silently ignored.
func bearerToken(r *http.Request) (token string, present bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// writeUnauthorized uses the same message for every failure to avoid
// leaking which check rejected the token.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="userprov"`)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing bearer token")
}
