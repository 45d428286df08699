package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/config"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/database"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/kafka"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/logger"
	appRedis "github.com/jimrulison/CustomermindIQ-sub005/internal/infra/redis"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/security"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/telemetry"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository/postgres"
	redisRepo "github.com/jimrulison/CustomermindIQ-sub005/internal/repository/redis"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/middleware"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/routes"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/usecase"
)

// App owns the process lifecycle: it wires config, infrastructure,
// repositories, services, and the HTTP server, then runs until a shutdown
// signal arrives.
type App struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	pool   *pgxpool.Pool
	cache  *appRedis.Client
	kafka  *kafka.Producer
	tracer *telemetry.TracerProvider
	server *http.Server
}

// New builds the application from configuration. Redis and Kafka are
// optional: a missing cache disables login throttling, a missing broker
// downgrades event publishing to log output.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	app := &App{cfg: cfg, log: log}

	app.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}

	app.pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	app.cache, err = appRedis.NewClient(cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, login throttling disabled", zap.Error(err))
		app.cache = nil
	}

	var events port.EventPublisher
	app.kafka, err = kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("kafka unavailable, events will be logged only", zap.Error(err))
		app.kafka = nil
		events = kafka.NewStubPublisher(log)
	} else {
		events = kafka.NewEventPublisher(app.kafka, cfg.App, log)
	}

	policy := domain.LockoutPolicy{
		Threshold: cfg.Auth.LockoutThreshold,
		Duration:  cfg.Auth.LockoutDuration,
	}
	store := postgres.NewAccountRepository(app.pool, policy)

	validator := security.DefaultPasswordValidator()
	services := routes.Services{
		Auth:         usecase.NewAuthService(cfg.Auth, store, events, log),
		Registration: usecase.NewRegistrationService(store, events, validator, log),
		Accounts:     usecase.NewAccountService(store, events, validator, log),
	}

	var limiter *middleware.RateLimiter
	var cacheChecker routes.CacheChecker
	if app.cache != nil {
		throttle := redisRepo.NewLoginThrottleRepository(app.cache.Client(), redisRepo.ThrottleConfig{
			KeyPrefix: cfg.Redis.ThrottlePrefix,
			TTL:       cfg.Redis.ThrottleTTL,
		})
		limiter = middleware.NewRateLimiter(throttle, log)
		cacheChecker = app.cache
	}

	router := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Services:    services,
		RateLimiter: limiter,
		Database:    app.pool,
		Cache:       cacheChecker,
	})

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

// Run serves HTTP until the context is cancelled or a SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server starting", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown", zap.Error(err))
	}

	a.Close(shutdownCtx)
	return nil
}

// Close releases infrastructure in reverse dependency order.
func (a *App) Close(ctx context.Context) {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.log.Error("close kafka producer", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Error("close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.log.Error("shutdown tracer", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
