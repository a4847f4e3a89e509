package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/userprov/userprov/internal/cache"
	"github.com/userprov/userprov/internal/claims"
	"github.com/userprov/userprov/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBadToken = errors.New("bad token")

// fakeVerifier accepts any token present in tokens.
type fakeVerifier struct {
	tokens map[string]*claims.Set
	calls  atomic.Int32
}

func (v *fakeVerifier) Verify(_ context.Context, raw string) (*claims.Set, error) {
	v.calls.Add(1)
	set, ok := v.tokens[raw]
	if !ok {
		return nil, errBadToken
	}
	return set, nil
}

type fakeProvisioner struct {
	user  *model.User
	calls atomic.Int32
}

func (p *fakeProvisioner) GetOrProvision(_ context.Context, _ *claims.Set) *model.User {
	p.calls.Add(1)
	return p.user
}

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	keys   []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (*cache.RateLimitResult, error) {
	l.keys = append(l.keys, key)
	return l.result, l.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if body.Error.Status != rec.Code {
		t.Errorf("body status = %d, response status = %d", body.Error.Status, rec.Code)
	}
	return body.Error.Code
}

type panicProvisioner struct{}

func (panicProvisioner) GetOrProvision(context.Context, *claims.Set) *model.User {
	panic("provisioner exploded")
}
