package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/userprov/userprov/internal/audit"
	"github.com/userprov/userprov/internal/auth"
	"github.com/userprov/userprov/internal/claims"
	"github.com/userprov/userprov/internal/metrics"
	"github.com/userprov/userprov/internal/middleware"
	"github.com/userprov/userprov/internal/model"
)

// DevelopmentEnvironment is the only environment in which wipes are allowed.
const DevelopmentEnvironment = "development"

// UserStore is the subset of the repository the user endpoints read from.
type UserStore interface {
	FindBySubjectID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListAll(ctx context.Context) ([]*model.User, error)
	WipeAll(ctx context.Context) (int64, error)
}

// UserHandlerConfig holds the dependencies of UserHandler.
type UserHandlerConfig struct {
	Store       UserStore
	Audit       *audit.Logger
	Metrics     metrics.Recorder
	Logger      *slog.Logger
	Environment string
	AdminRole   string
}

// UserHandler serves the /api/user endpoints.
type UserHandler struct {
	store       UserStore
	audit       *audit.Logger
	metrics     metrics.Recorder
	logger      *slog.Logger
	environment string
	adminRole   string
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(cfg UserHandlerConfig) *UserHandler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.AdminRole == "" {
		cfg.AdminRole = auth.DefaultAdminRole
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NewLogger(cfg.Logger)
	}
	return &UserHandler{
		store:       cfg.Store,
		audit:       cfg.Audit,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		environment: cfg.Environment,
		adminRole:   cfg.AdminRole,
	}
}

// ClaimSummary is the caller's identity as read from the token.
type ClaimSummary struct {
	Sub    string              `json:"sub"`
	Email  string              `json:"email"`
	Name   string              `json:"name"`
	Groups []string            `json:"groups"`
	Roles  []string            `json:"roles"`
	All    map[string][]string `json:"all"`
}

// MeResponse is returned by GET /api/user/me.
type MeResponse struct {
	Claims ClaimSummary `json:"claims"`
	User   *model.User  `json:"user"`
}

// ListResponse is returned by GET /api/user.
type ListResponse struct {
	Users []*model.User `json:"users"`
	Total int           `json:"total"`
}

// Me returns the caller's claims and local user record, if any.
// A missing local record is reported as "user": null, never as 404.
//
// GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	set := auth.ClaimsFromContext(r.Context())
	if !set.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	resp := MeResponse{Claims: summarize(set)}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		if id, err := set.SubjectID(); err == nil {
			found, err := h.store.FindBySubjectID(r.Context(), id)
			if err != nil {
				writeServiceError(w, h.logger, r, err)
				return
			}
			user = found
		}
	}
	resp.User = user

	writeJSON(w, http.StatusOK, resp)
}

// GetByExternalID returns one local user record.
//
// GET /api/user/external/{externalUserId}
func (h *UserHandler) GetByExternalID(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "externalUserId")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "externalUserId must be a UUID")
		return
	}

	user, err := h.store.FindBySubjectID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// List returns every local user record ordered by creation time.
//
// GET /api/user
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}

	writeJSON(w, http.StatusOK, ListResponse{Users: users, Total: len(users)})
}

// Wipe deletes every local user record. It requires the admin role and a
// development environment; every attempt is audited whatever the outcome.
//
// DELETE /api/user/wipe
func (h *UserHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	set := auth.ClaimsFromContext(r.Context())
	if !set.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	event := audit.Event{
		Action:      "user.wipe",
		Actor:       actorOf(set),
		ActorEmail:  set.Email(),
		Groups:      set.Groups(),
		Environment: h.environment,
		RequestID:   middleware.GetRequestID(r.Context()),
		RemoteAddr:  r.RemoteAddr,
	}

	if !auth.HasRequiredRole(set, h.adminRole) {
		event.Outcome = audit.OutcomeDenied
		event.Reason = "missing role " + h.adminRole
		h.audit.Record(r.Context(), event)
		h.metrics.IncWipeAttempt(metrics.WipeDeniedRole)
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions. Required role: "+h.adminRole)
		return
	}

	if !strings.EqualFold(h.environment, DevelopmentEnvironment) {
		event.Outcome = audit.OutcomeDenied
		event.Reason = "environment is not development"
		h.audit.Record(r.Context(), event)
		h.metrics.IncWipeAttempt(metrics.WipeDeniedEnv)
		writeError(w, http.StatusForbidden, "WIPE_NOT_ALLOWED", "Wipe is not allowed outside development")
		return
	}

	deleted, err := h.store.WipeAll(r.Context())
	if err != nil {
		event.Outcome = audit.OutcomeFailed
		event.Reason = err.Error()
		h.audit.Record(r.Context(), event)
		h.metrics.IncWipeAttempt(metrics.WipeFailed)
		writeServiceError(w, h.logger, r, err)
		return
	}

	event.Outcome = audit.OutcomeAllowed
	event.Affected = deleted
	h.audit.Record(r.Context(), event)
	h.metrics.IncWipeAttempt(metrics.WipeAllowed)
	w.WriteHeader(http.StatusNoContent)
}

func summarize(set *claims.Set) ClaimSummary {
	sub := ""
	if id, err := set.SubjectID(); err == nil {
		sub = id.String()
	}
	return ClaimSummary{
		Sub:    sub,
		Email:  set.Email(),
		Name:   set.DisplayName(),
		Groups: set.Groups(),
		Roles:  set.Roles(),
		All:    set.Map(),
	}
}

// actorOf names the caller for audit records, falling back to the raw
// subject when it is not a UUID.
func actorOf(set *claims.Set) string {
	if id, err := set.SubjectID(); err == nil {
		return id.String()
	}
	if v, ok := set.First(claims.ClaimSubject); ok {
		return v
	}
	return "unknown"
}
