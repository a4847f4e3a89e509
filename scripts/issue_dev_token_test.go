package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userprov/userprov/internal/auth"
	"github.com/userprov/userprov/internal/oidc"
)

const devSecret = "dev-token-test-secret-0123456789abcdef"

func TestIssueToken_AcceptedByHMACVerifier(t *testing.T) {
	sub := uuid.New()
	req := tokenRequest{
		Subject: sub.String(),
		Email:   "ada@example.com",
		Issuer:  "https://issuer.test",
		Groups:  []string{"admin", "dev"},
		Roles:   []string{},
		TTL:     time.Hour,
	}

	token, err := issueToken([]byte(devSecret), req, time.Now())
	require.NoError(t, err)

	set, err := oidc.NewHMACVerifier([]byte(devSecret), "https://issuer.test").Verify(context.Background(), token)
	require.NoError(t, err)

	id, err := set.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, sub, id)
	assert.Equal(t, "ada@example.com", set.Email())
	assert.Equal(t, []string{"admin", "dev"}, set.Groups())
	assert.True(t, auth.HasRequiredRole(set, "admin"))
}

func TestIssueToken_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  tokenRequest
	}{
		{name: "non uuid subject", req: tokenRequest{Subject: "alice", TTL: time.Hour}},
		{name: "zero ttl", req: tokenRequest{Subject: uuid.NewString()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issueToken([]byte(devSecret), tt.req, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestIssueToken_ExpiredIsRejected(t *testing.T) {
	req := tokenRequest{Subject: uuid.NewString(), TTL: time.Minute}

	token, err := issueToken([]byte(devSecret), req, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = oidc.NewHMACVerifier([]byte(devSecret), "").Verify(context.Background(), token)
	assert.ErrorIs(t, err, oidc.ErrInvalidToken)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{}, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
}

func TestWriteOutput(t *testing.T) {
	out := output{Subject: "s", Groups: []string{}, Roles: []string{}, Token: "tok"}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "plain", out))
	assert.Equal(t, "tok\n", buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "JSON", out))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "tok", decoded["token"])

	err := writeOutput(&buf, "yaml", out)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid format"))
}
