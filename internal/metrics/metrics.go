// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Provisioning outcomes.
const (
	OutcomeExisting = "existing"
	OutcomeCreated  = "created"
	OutcomeRaced    = "raced"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Wipe attempt outcomes.
const (
	WipeAllowed    = "allowed"
	WipeDeniedRole = "denied_role"
	WipeDeniedEnv  = "denied_environment"
	WipeFailed     = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// IncProvisioning counts one pass through the provisioning hook.
	IncProvisioning(outcome string)

	// IncWipeAttempt counts one call to the wipe endpoint.
	IncWipeAttempt(outcome string)

	// IncRateLimited counts a request rejected by the rate limiter.
	IncRateLimited()
}

