package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/userprov/userprov/internal/metrics"
)

func TestMetricsHandler_ExposesRecorderCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheus(reg)
	recorder.IncProvisioning(metrics.OutcomeCreated)
	recorder.IncWipeAttempt(metrics.WipeDeniedEnv)

	h := NewMetricsHandler(reg, discardLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`userprov_provisioning_total{outcome="created"} 1`,
		`userprov_wipe_attempts_total{outcome="denied_environment"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}
