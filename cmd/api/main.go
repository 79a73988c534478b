// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/meetstack/backend/internal/admin"
	"github.com/carterperez-dev/meetstack/backend/internal/auth"
	"github.com/carterperez-dev/meetstack/backend/internal/broker"
	"github.com/carterperez-dev/meetstack/backend/internal/clock"
	"github.com/carterperez-dev/meetstack/backend/internal/config"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/event"
	"github.com/carterperez-dev/meetstack/backend/internal/health"
	"github.com/carterperez-dev/meetstack/backend/internal/identity"
	"github.com/carterperez-dev/meetstack/backend/internal/metrics"
	"github.com/carterperez-dev/meetstack/backend/internal/middleware"
	"github.com/carterperez-dev/meetstack/backend/internal/profile"
	"github.com/carterperez-dev/meetstack/backend/internal/server"
	"github.com/carterperez-dev/meetstack/backend/internal/subscription"
	"github.com/carterperez-dev/meetstack/backend/migrations"
)

const (
	drainDelay    = 5 * time.Second
	brokerRetries = 5
	brokerBackoff = 2 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"identity_provider", cfg.Identity.Provider,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry exporter initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(db.DB.DB); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
	}

	var publisher broker.Publisher = broker.Noop{}
	if cfg.Broker.Enabled {
		amqpPub, dialErr := broker.Dial(
			cfg.Broker.URL,
			cfg.Broker.Exchange,
			brokerRetries,
			brokerBackoff,
		)
		if dialErr != nil {
			return dialErr
		}
		publisher = amqpPub
		logger.Info("broker connected", "exchange", cfg.Broker.Exchange)
	}

	clk := clock.System()

	jwtManager, err := auth.NewJWTManager(cfg.JWT, clk)
	if err != nil {
		return err
	}
	logger.Info("token verifier initialized",
		"algorithm", "HS256",
		"audience", cfg.JWT.Audience,
	)

	var provider auth.IdentityProvider
	switch cfg.Identity.Provider {
	case config.ProviderLocal:
		provider = identity.NewLocalProvider(identity.NewRepository(db.DB), jwtManager)
		logger.Warn("using local identity provider, not for production")
	default:
		provider = identity.NewSupabaseClient(cfg.Identity)
	}

	profileRepo := profile.NewRepository(db.DB)
	profileSvc := profile.NewService(profileRepo)
	profileHandler := profile.NewHandler(profileSvc)

	subscriptionRepo := subscription.NewRepository(db.DB)
	quotaGate := subscription.NewQuotaGate(subscriptionRepo, clk, cfg.Registration.DailyQuota)
	subscriptionSvc := subscription.NewService(
		subscriptionRepo,
		db,
		clk,
		cfg.Registration.DefaultPlan,
	)
	subscriptionHandler := subscription.NewHandler(subscriptionSvc, quotaGate)

	revocations := auth.NewRevocationStore(redis)

	authSvc := auth.NewService(auth.ServiceConfig{
		Provider:    provider,
		Tx:          db,
		Profiles:    profileSvc,
		Plans:       subscriptionSvc,
		Quota:       quotaGate,
		Revocations: revocations,
		Publisher:   publisher,
		Metrics:     appMetrics,
		Clock:       clk,
		Leeway:      cfg.JWT.Leeway,
	})
	authHandler := auth.NewHandler(authSvc)

	eventSvc := event.NewService(event.ServiceConfig{
		Repo:       event.NewRepository(db.DB),
		Tx:         db,
		Profiles:   profileSvc,
		Publisher:  publisher,
		Metrics:    appMetrics,
		Clock:      clk,
		OwnerLimit: cfg.Events.OwnerLimit,
	})
	eventHandler := event.NewHandler(eventSvc)

	healthHandler := health.NewHandler().
		WithCheck("database", db).
		WithCheck("redis", redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Profiles:      profileSvc,
		Events:        eventSvc,
		Subscriptions: subscriptionSvc,
		DBStats:       db.Stats,
		RedisStats:    redis.PoolStats,
		DBPing:        db.Ping,
		RedisPing:     redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger, appMetrics))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Method(http.MethodGet, cfg.Metrics.Path, appMetrics.Handler())
	}

	authenticator := middleware.Authenticator(jwtManager, profileSvc, revocations)
	staffOnly := middleware.RequireStaff

	credentialLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		KeyFunc: middleware.KeyByRoute("auth", middleware.KeyByIP),
	}).Handler

	routes := func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, credentialLimit)
		profileHandler.RegisterRoutes(r, authenticator)
		profileHandler.RegisterAdminRoutes(r, authenticator, staffOnly)
		eventHandler.RegisterRoutes(r, authenticator)
		subscriptionHandler.RegisterRoutes(r, authenticator)
		subscriptionHandler.RegisterAdminRoutes(r, authenticator, staffOnly)
		adminHandler.RegisterRoutes(r, authenticator, staffOnly)
	}

	routes(router)
	router.Route("/v1", routes)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("broker close error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
