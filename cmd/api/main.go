// Package main is the entrypoint for the userprov API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/userprov/userprov/internal/audit"
	"github.com/userprov/userprov/internal/cache"
	"github.com/userprov/userprov/internal/config"
	"github.com/userprov/userprov/internal/handler"
	"github.com/userprov/userprov/internal/metrics"
	"github.com/userprov/userprov/internal/middleware"
	"github.com/userprov/userprov/internal/oidc"
	"github.com/userprov/userprov/internal/repository"
	"github.com/userprov/userprov/internal/server"
	"github.com/userprov/userprov/internal/service"
)

const discoveryTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxConns: cfg.DatabaseMaxConn,
		MinConns: cfg.DatabaseMinConn,
	})
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))

	// Health checks need a nil interface, not a nil *cache.Cache, when Redis is off.
	var redisCheck handler.HealthChecker
	var limiter cache.Limiter
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			repo.Close()
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return errors.New("redis unavailable")
		}
		logger.Info("connected to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))
		redisCheck = cacheClient
		limiter = cache.NewRedisLimiter(cacheClient, cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	} else {
		logger.Warn("REDIS_URL not set, rate limits are kept per instance")
		limiter = cache.NewLocalLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, cfg.RateLimitMaxKeys)
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		repo.Close()
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	router := newRouter(routerDeps{
		cfg:         cfg,
		logger:      logger,
		verifier:    verifier,
		provisioner: service.NewProvisioningService(repo, logger, recorder),
		users:       repo,
		audit:       audit.NewLogger(logger),
		limiter:     limiter,
		recorder:    recorder,
		gatherer:    registry,
		db:          repo,
		redis:       redisCheck,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		slog.Int("port", cfg.AppPort),
		slog.String("env", cfg.AppEnv),
		slog.String("auth_mode", cfg.AuthMode),
		slog.Bool("provisioning", cfg.ProvisioningEnabled),
	)

	return srv.Run(ctx)
}

// newVerifier picks the token verifier for the configured AUTH_MODE.
func newVerifier(ctx context.Context, cfg *config.Config) (middleware.TokenVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeHMAC:
		return oidc.NewHMACVerifier([]byte(cfg.JWTHMACSecret), cfg.JWTIssuer), nil
	case config.AuthModeOIDC:
		dctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		defer cancel()

		v, err := oidc.NewVerifier(dctx, oidc.Config{
			IssuerURL:         cfg.OIDCIssuerURL,
			ClientID:          cfg.OIDCClientID,
			SkipClientIDCheck: cfg.OIDCSkipClientIDCheck,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc issuer %s: %w", cfg.OIDCIssuerURL, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported AUTH_MODE %q", cfg.AuthMode)
	}
}
