package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 5 * time.Second

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	checks []namedCheck
	logger *slog.Logger
}

type namedCheck struct {
	name    string
	checker HealthChecker
}

// NewHealthHandler creates a HealthHandler for the database and, when
// configured, Redis. A nil redis means the service runs without it and the
// check reports "disabled" without failing readiness.
func NewHealthHandler(db, redis HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		checks: []namedCheck{
			{name: "postgres", checker: db},
			{name: "redis", checker: redis},
		},
		logger: logger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz answers 200 only when every configured dependency responds.
// Failure details are logged, never returned to the caller.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for _, c := range h.checks {
		if c.checker == nil {
			resp.Checks[c.name] = "disabled"
			continue
		}
		if err := c.checker.Ping(ctx); err != nil {
			h.logger.LogAttrs(r.Context(), slog.LevelWarn, "readiness check failed",
				slog.String("check", c.name),
				slog.String("error", err.Error()),
			)
			resp.Checks[c.name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.name] = "ok"
	}

	writeJSON(w, status, resp)
}
