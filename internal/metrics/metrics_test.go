package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder(t *testing.T) {
	m := NewInMemory()

	m.IncProvisioning(OutcomeCreated)
	m.IncProvisioning(OutcomeCreated)
	m.IncProvisioning(OutcomeExisting)
	m.IncWipeAttempt(WipeDeniedEnv)
	m.IncRateLimited()

	snap := m.Snapshot()
	if snap.Provisioning[OutcomeCreated] != 2 {
		t.Errorf("expected 2 created, got %d", snap.Provisioning[OutcomeCreated])
	}
	if snap.Provisioning[OutcomeExisting] != 1 {
		t.Errorf("expected 1 existing, got %d", snap.Provisioning[OutcomeExisting])
	}
	if snap.WipeAttempts[WipeDeniedEnv] != 1 {
		t.Errorf("expected 1 denied wipe, got %d", snap.WipeAttempts[WipeDeniedEnv])
	}
	if snap.RateLimited != 1 {
		t.Errorf("expected 1 rate limited, got %d", snap.RateLimited)
	}

	// Snapshot is a copy.
	snap.Provisioning[OutcomeCreated] = 100
	if m.Snapshot().Provisioning[OutcomeCreated] != 2 {
		t.Error("snapshot should not alias recorder state")
	}
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncProvisioning(OutcomeFailed)
	p.IncWipeAttempt(WipeAllowed)
	p.IncWipeAttempt(WipeAllowed)
	p.IncRateLimited()

	if got := testutil.ToFloat64(p.provisioning.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("expected 1 failed provisioning, got %v", got)
	}
	if got := testutil.ToFloat64(p.wipeAttempts.WithLabelValues(WipeAllowed)); got != 2 {
		t.Errorf("expected 2 allowed wipes, got %v", got)
	}
	if got := testutil.ToFloat64(p.rateLimited); got != 1 {
		t.Errorf("expected 1 rate limited, got %v", got)
	}
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoop()
	n.IncProvisioning(OutcomeCreated)
	n.IncWipeAttempt(WipeAllowed)
	n.IncRateLimited()
}
