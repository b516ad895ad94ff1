// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carterperez-dev/inkpost/internal/admin"
	"github.com/carterperez-dev/inkpost/internal/auth"
	"github.com/carterperez-dev/inkpost/internal/blog"
	"github.com/carterperez-dev/inkpost/internal/config"
	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/health"
	"github.com/carterperez-dev/inkpost/internal/middleware"
	"github.com/carterperez-dev/inkpost/internal/moderation"
	"github.com/carterperez-dev/inkpost/internal/server"
	"github.com/carterperez-dev/inkpost/internal/subscription"
	"github.com/carterperez-dev/inkpost/internal/trust"
	"github.com/carterperez-dev/inkpost/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("genkeys", false, "generate an ES256 key pair at the configured paths and exit")
	flag.Parse()

	if *genKeys {
		if err := generateKeys(*configPath); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func generateKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
		return err
	}
	slog.Info("key pair written",
		"private_key", cfg.JWT.PrivateKeyPath,
		"public_key", cfg.JWT.PublicKeyPath,
	)
	return nil
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

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
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
		if err := db.Migrate(ctx); err != nil {
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

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	gate := trust.NewGate(userRepo, logger)

	authSvc := auth.NewService(
		jwtManager,
		userSvc,
		gate,
		auth.NewRedisDenylist(redis.Client),
	)
	authHandler := auth.NewHandler(authSvc)

	moderationHandler := moderation.NewHandler(
		moderation.NewService(userRepo, cfg.Trust, logger),
	)

	subscriptionSvc := subscription.NewService(subscription.ServiceConfig{
		Lifecycle: subscription.NewLifecycle(userRepo, logger),
		Payments:  subscription.NewRepository(db.DB),
		Users:     userRepo,
		Gateway:   subscription.NewFlutterwave(cfg.Payment),
		Pricing:   subscription.NewPricing(cfg.Subscription),
		Locker:    redis,
		Logger:    logger,
	})
	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	blogRepo := blog.NewRepository(db.DB)
	blogHandler := blog.NewHandler(
		blog.NewService(blogRepo, cfg.Engagement, logger),
		blogRepo,
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db, Critical: true},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Stats:      admin.NewStatsStore(db.DB),
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	var sweeper *trust.Sweeper
	if cfg.Trust.SweepEnabled {
		sweeper = trust.NewSweeper(gate, userRepo, cfg.Trust, logger)
		if err := sweeper.Start(); err != nil {
			return err
		}
		logger.Info("trust sweep scheduled", "schedule", cfg.Trust.SweepSchedule)
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(chimw.Recoverer)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc, gate)
	authorAuthenticator := middleware.AuthorAuthenticator(authSvc, gate)
	staffOnly := middleware.RequireStaff

	likeLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.Engagement.LikeRatePerMinute,
			cfg.Engagement.LikeBurst,
		),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, staffOnly)

		moderationHandler.RegisterRoutes(r, authenticator, staffOnly)

		subscriptionHandler.RegisterRoutes(r, authenticator)
		subscriptionHandler.RegisterAdminRoutes(r, authenticator, staffOnly)

		blogHandler.RegisterRoutes(r, blog.RouteGuards{
			Authenticator:       authenticator,
			AuthorAuthenticator: authorAuthenticator,
			LikeLimiter:         likeLimiter,
		})

		adminHandler.RegisterRoutes(r, authenticator, staffOnly)
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

	if sweeper != nil {
		sweeper.Stop()
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
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
