package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	tests := []struct {
		name       string
		verbose    bool
		wantInBody string
		wantHidden string
	}{
		{name: "production hides panic", verbose: false, wantInBody: "Internal server error", wantHidden: "kaboom"},
		{name: "verbose shows panic", verbose: true, wantInBody: "kaboom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))

			handler := Recoverer(logger, tt.verbose)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("kaboom")
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
			}
			if code := decodeErrorCode(t, rec); code != "INTERNAL_ERROR" {
				t.Errorf("error code = %q, want INTERNAL_ERROR", code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.wantInBody) {
				t.Errorf("body %q does not contain %q", body, tt.wantInBody)
			}
			if tt.wantHidden != "" && strings.Contains(body, tt.wantHidden) {
				t.Errorf("body %q leaks %q", body, tt.wantHidden)
			}
			if !strings.Contains(logs.String(), `"panic":"kaboom"`) || !strings.Contains(logs.String(), `"stack"`) {
				t.Errorf("panic not logged with stack: %s", logs.String())
			}
		})
	}
}

func TestRecoverer_NoPanic(t *testing.T) {
	handler := Recoverer(discardLogger(), false)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
