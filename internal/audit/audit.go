// Package audit records security-relevant actions to the structured log.
package audit

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcome values.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeFailed  = "failed"
)

// Event describes one audited action.
type Event struct {
	ID          string
	Action      string
	Outcome     string
	Reason      string
	Actor       string
	ActorEmail  string
	Groups      []string
	Environment string
	RequestID   string
	RemoteAddr  string
	Affected    int64
	OccurredAt  time.Time
}

// Logger writes audit events at warning severity.
type Logger struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewLogger creates an audit Logger writing through logger.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{
		logger:  logger,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Record assigns an ID and timestamp to e and logs it.
func (l *Logger) Record(ctx context.Context, e Event) Event {
	e.OccurredAt = l.now().UTC()
	e.ID = l.newID(e.OccurredAt)

	attrs := []slog.Attr{
		slog.String("audit_id", e.ID),
		slog.String("action", e.Action),
		slog.String("outcome", e.Outcome),
		slog.String("actor", e.Actor),
		slog.Any("groups", e.Groups),
		slog.String("environment", e.Environment),
		slog.Time("occurred_at", e.OccurredAt),
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}
	if e.ActorEmail != "" {
		attrs = append(attrs, slog.String("actor_email", e.ActorEmail))
	}
	if e.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", e.RequestID))
	}
	if e.RemoteAddr != "" {
		attrs = append(attrs, slog.String("ip", e.RemoteAddr))
	}
	if e.Outcome == OutcomeAllowed {
		attrs = append(attrs, slog.Int64("affected", e.Affected))
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "audit", attrs...)
	return e
}

func (l *Logger) newID(t time.Time) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), l.entropy).String()
}
