package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncProvisioning is a no-op.
func (n *NoopRecorder) IncProvisioning(outcome string) {}

// IncWipeAttempt is a no-op.
func (n *NoopRecorder) IncWipeAttempt(outcome string) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
