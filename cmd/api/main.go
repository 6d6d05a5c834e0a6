// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tourguide/internal/admin"
	"github.com/carterperez-dev/tourguide/internal/auth"
	"github.com/carterperez-dev/tourguide/internal/booking"
	"github.com/carterperez-dev/tourguide/internal/config"
	"github.com/carterperez-dev/tourguide/internal/contact"
	"github.com/carterperez-dev/tourguide/internal/core"
	"github.com/carterperez-dev/tourguide/internal/experience"
	"github.com/carterperez-dev/tourguide/internal/health"
	"github.com/carterperez-dev/tourguide/internal/middleware"
	"github.com/carterperez-dev/tourguide/internal/property"
	"github.com/carterperez-dev/tourguide/internal/server"
	"github.com/carterperez-dev/tourguide/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

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
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if telemetry.Exporting {
		logger.Info("exporting traces",
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

	if err := core.Migrate(ctx, db.DB); err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if err := ensureSigningKey(cfg); err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	hasher := core.NewPasswordHasher(cfg.Security.MaxConcurrentHashes)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, cfg.Admin.BootstrapEmails)
	userHandler := user.NewHandler(userSvc)

	var providers []auth.OAuthProvider
	if cfg.OAuth.Google.Enabled {
		providers = append(providers, auth.NewGoogleProvider(cfg.OAuth.Google))
		logger.Info("external login enabled", "provider", auth.ProviderGoogle)
	}

	authRepo := auth.NewRepository(db.DB)
	purged, err := authRepo.DeleteExpired(ctx)
	if err != nil {
		logger.Warn("failed to purge expired refresh tokens", "error", err)
	} else if purged > 0 {
		logger.Info("purged expired refresh tokens", "count", purged)
	}

	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		hasher,
		redis.Client,
		cfg.Session,
		cfg.OAuth.StateTTL,
		providers...,
	)
	authHandler := auth.NewHandler(authSvc, cfg.Session)

	propertySvc := property.NewService(property.NewRepository(db.DB))
	propertyHandler := property.NewHandler(propertySvc)

	experienceSvc := experience.NewService(experience.NewRepository(db.DB))
	experienceHandler := experience.NewHandler(experienceSvc)

	bookingSvc := booking.NewService(booking.NewRepository(db.DB), propertySvc, userSvc)
	bookingHandler := booking.NewHandler(bookingSvc)

	contactSvc := contact.NewService(contact.NewRepository(db.DB))
	contactHandler := contact.NewHandler(contactSvc)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Service: admin.NewService(admin.Sources{
			Bookings:    bookingSvc,
			Recent:      bookingSvc,
			Contacts:    contactSvc,
			Properties:  propertySvc,
			Experiences: experienceSvc,
			Users:       userSvc,
		}),
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.Tracer))
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc, cfg.Session.AccessCookie)
	optionalAuth := middleware.OptionalAuth(authSvc, cfg.Session.AccessCookie)

	formLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	adminLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
			cfg.RateLimit.Window,
		),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, optionalAuth, formLimiter)
		userHandler.RegisterRoutes(r, authenticator)

		experienceHandler.RegisterRoutes(r)
		propertyHandler.RegisterRoutes(r)
		bookingHandler.RegisterRoutes(r, authenticator, optionalAuth, formLimiter)
		contactHandler.RegisterRoutes(r, formLimiter)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticator)
			r.Use(middleware.RequireAdmin)
			r.Use(adminLimiter)

			adminHandler.RegisterRoutes(r)
			propertyHandler.RegisterAdminRoutes(r)
			experienceHandler.RegisterAdminRoutes(r)
			bookingHandler.RegisterAdminRoutes(r)
			contactHandler.RegisterAdminRoutes(r)
			userHandler.RegisterAdminRoutes(r)
		})
	})

	healthHandler.SetReady(true)

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

// ensureSigningKey creates a throwaway key pair outside production when
// none exists yet.
func ensureSigningKey(cfg *config.Config) error {
	_, err := os.Stat(cfg.JWT.PrivateKeyPath)
	if err == nil || !errors.Is(err, fs.ErrNotExist) || cfg.IsProduction() {
		return nil
	}

	slog.Warn("generating development signing key",
		"private_key_path", cfg.JWT.PrivateKeyPath,
	)
	return auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
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
