package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/userprov/userprov/internal/audit"
	"github.com/userprov/userprov/internal/cache"
	"github.com/userprov/userprov/internal/config"
	"github.com/userprov/userprov/internal/handler"
	"github.com/userprov/userprov/internal/metrics"
	"github.com/userprov/userprov/internal/middleware"
)

type routerDeps struct {
	cfg         *config.Config
	logger      *slog.Logger
	verifier    middleware.TokenVerifier
	provisioner middleware.Provisioner
	users       handler.UserStore
	audit       *audit.Logger
	limiter     cache.Limiter
	recorder    metrics.Recorder
	gatherer    prometheus.Gatherer
	db          handler.HealthChecker
	redis       handler.HealthChecker
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(d routerDeps) http.Handler {
	cfg := d.cfg
	h := handler.New()
	health := handler.NewHealthHandler(d.db, d.redis, d.logger)
	users := handler.NewUserHandler(handler.UserHandlerConfig{
		Store:       d.users,
		Audit:       d.audit,
		Metrics:     d.recorder,
		Logger:      d.logger,
		Environment: cfg.AppEnv,
		AdminRole:   cfg.AdminRole,
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSOrigins()

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Operational endpoints (no auth required)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if d.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", handler.NewMetricsHandler(d.gatherer, d.logger))
	}

	r.Route("/api/user", func(r chi.Router) {
		r.Use(middleware.Authenticate(middleware.AuthConfig{Logger: d.logger, Verifier: d.verifier}))
		r.Use(middleware.Provision(middleware.ProvisionConfig{
			Provisioner: d.provisioner,
			Enabled:     cfg.ProvisioningEnabled,
		}))
		r.Use(middleware.RequireAuthenticated())
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Logger:  d.logger,
			Limiter: d.limiter,
			Metrics: d.recorder,
			Enabled: cfg.RateLimitEnabled,
		}))

		r.Get("/me", users.Me)

		// Wipe checks the role itself so that role denials are audited too.
		r.Delete("/wipe", users.Wipe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(cfg.AdminRole))
			r.Get("/", users.List)
			r.Get("/external/{externalUserId}", users.GetByExternalID)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
