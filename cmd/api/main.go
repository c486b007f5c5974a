// Package main is the entrypoint for the Falcon assistant API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/falconhq/falcon/internal/brain"
	"github.com/falconhq/falcon/internal/cache"
	"github.com/falconhq/falcon/internal/config"
	"github.com/falconhq/falcon/internal/gateway"
	"github.com/falconhq/falcon/internal/handler"
	"github.com/falconhq/falcon/internal/middleware"
	"github.com/falconhq/falcon/internal/repository"
	"github.com/falconhq/falcon/internal/resolver"
	"github.com/falconhq/falcon/internal/scheduler"
	"github.com/falconhq/falcon/internal/server"
	"github.com/falconhq/falcon/internal/sweep"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache. Optional: without Redis the sweep runs without
	// notification dedup.
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		defer cacheClient.Close()
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, sweep notification dedup disabled")
	}

	// Initialize outbound gateway
	sender := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.EvolutionAPIURL,
		APIKey:      cfg.EvolutionAPIKey,
		Instance:    cfg.EvolutionInstance,
		CountryCode: cfg.CountryCode,
		Timeout:     cfg.GatewayTimeout,
		SendDelayMs: cfg.SendDelayMs,
	}, logger)

	// Initialize pipeline components
	brainOpts := brain.Options{
		BillLookaheadDays:   cfg.BillLookaheadDays,
		InactivityThreshold: cfg.InactivityThreshold,
	}
	accountResolver := resolver.New(repo, cfg.CountryCode)

	var dedup sweep.DedupStore
	if cacheClient != nil {
		dedup = cacheClient
	}
	sweeper := sweep.New(repo, repo, sender, dedup, repo, logger, sweep.Options{
		Brain:       brainOpts,
		Concurrency: cfg.SweepConcurrency,
	})

	// Initialize handlers
	h := handler.New()
	var cacheChecker handler.HealthChecker
	if cacheClient != nil {
		cacheChecker = cacheClient
	}
	healthHandler := handler.NewHealthHandler(repo, cacheChecker)
	webhookHandler := handler.NewWebhookHandler(accountResolver, repo, sender, logger, brainOpts)
	sweepHandler := handler.NewSweepHandler(sweeper, logger)

	// Setup router
	r := setupRouter(h, healthHandler, webhookHandler, sweepHandler, cfg, logger)

	// Create server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Optional in-process sweep schedule
	if cfg.SweepSchedule != "" {
		sched, err := scheduler.New(cfg.SweepSchedule, sweeper, logger)
		if err != nil {
			logger.Error("invalid sweep schedule", "error", err, "schedule", cfg.SweepSchedule)
			os.Exit(1)
		}
		sched.Start()
		srv.OnShutdown("sweep scheduler", sched.Stop)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"sweep_schedule", cfg.SweepSchedule,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	webhookHandler *handler.WebhookHandler,
	sweepHandler *handler.SweepHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	// Provider webhook. The provider cannot carry credentials, so the route
	// relies on payload validation rather than auth.
	r.Post("/webhook/falcon", webhookHandler.Receive)

	// Sweep trigger for the external scheduler, bearer-token protected.
	r.With(middleware.CronAuth(cfg.CronTokenHash, logger)).
		Get("/cron/falcon-sweep", sweepHandler.Trigger)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
