package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "userprov"

// PrometheusRecorder publishes counters to a Prometheus registry.
type PrometheusRecorder struct {
	provisioning *prometheus.CounterVec
	wipeAttempts *prometheus.CounterVec
	rateLimited  prometheus.Counter
}

// NewPrometheus creates a recorder and registers its collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		provisioning: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "provisioning_total", Help: "Provisioning hook results by outcome."},
			[]string{"outcome"},
		),
		wipeAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "wipe_attempts_total", Help: "Wipe endpoint calls by outcome."},
			[]string{"outcome"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limited_total", Help: "Requests rejected by the rate limiter."},
		),
	}

	reg.MustRegister(p.provisioning, p.wipeAttempts, p.rateLimited)
	return p
}

// IncProvisioning increments the provisioning counter for outcome.
func (p *PrometheusRecorder) IncProvisioning(outcome string) {
	p.provisioning.WithLabelValues(outcome).Inc()
}

// IncWipeAttempt increments the wipe attempt counter for outcome.
func (p *PrometheusRecorder) IncWipeAttempt(outcome string) {
	p.wipeAttempts.WithLabelValues(outcome).Inc()
}

// IncRateLimited increments the rate limited counter.
func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimited.Inc()
}
