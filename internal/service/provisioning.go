// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/userprov/userprov/internal/claims"
	"github.com/userprov/userprov/internal/metrics"
	"github.com/userprov/userprov/internal/model"
	"github.com/userprov/userprov/internal/repository"
)

// UserStore is the persistence the provisioning flow needs.
type UserStore interface {
	FindBySubjectID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Insert(ctx context.Context, user *model.User) (*model.User, error)
}

// ProvisioningService creates local users the first time a verified subject is seen.
type ProvisioningService struct {
	store   UserStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewProvisioningService creates a new ProvisioningService.
func NewProvisioningService(store UserStore, logger *slog.Logger, recorder metrics.Recorder) *ProvisioningService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProvisioningService{
		store:   store,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
	}
}

// GetOrProvision returns the local user for the caller, creating it on first sight.
//
// A nil result means nothing was provisioned: the caller is unauthenticated,
// the subject claim is unusable, or storage failed. Failures are logged here
// and never returned, so authentication is not broken by a database hiccup.
func (s *ProvisioningService) GetOrProvision(ctx context.Context, c *claims.Set) *model.User {
	if !c.IsAuthenticated() {
		return nil
	}

	subject, err := c.SubjectID()
	if err != nil {
		s.logger.Warn("provisioning skipped: unusable subject claim",
			slog.String("error", err.Error()),
			slog.String("email", c.Email()),
		)
		s.metrics.IncProvisioning(metrics.OutcomeSkipped)
		return nil
	}

	existing, err := s.store.FindBySubjectID(ctx, subject)
	if err != nil {
		s.fail(ctx, "lookup", subject, c, err)
		return nil
	}
	if existing != nil {
		s.metrics.IncProvisioning(metrics.OutcomeExisting)
		return existing
	}

	created, err := s.store.Insert(ctx, model.NewUser(subject, s.now()))
	if err == nil {
		s.logger.Info("user provisioned",
			slog.String("subject", subject.String()),
			slog.String("email", c.Email()),
		)
		s.metrics.IncProvisioning(metrics.OutcomeCreated)
		return created
	}

	if !errors.Is(err, repository.ErrDuplicate) {
		s.fail(ctx, "insert", subject, c, err)
		return nil
	}

	// A concurrent first request for the same subject won the insert.
	winner, err := s.store.FindBySubjectID(ctx, subject)
	if err != nil || winner == nil {
		if err == nil {
			err = errors.New("row vanished after duplicate insert")
		}
		s.fail(ctx, "reread", subject, c, err)
		return nil
	}

	s.logger.Debug("provisioning race resolved by re-read", slog.String("subject", subject.String()))
	s.metrics.IncProvisioning(metrics.OutcomeRaced)
	return winner
}

func (s *ProvisioningService) fail(ctx context.Context, stage string, subject uuid.UUID, c *claims.Set, err error) {
	s.logger.LogAttrs(ctx, slog.LevelError, "provisioning failed",
		slog.String("stage", stage),
		slog.String("subject", subject.String()),
		slog.String("email", c.Email()),
		slog.String("name", c.DisplayName()),
		slog.String("error", err.Error()),
	)
	s.metrics.IncProvisioning(metrics.OutcomeFailed)
}
