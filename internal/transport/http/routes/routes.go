package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/config"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/handlers"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/transport/http/middleware"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/usecase"
)

// DatabaseChecker probes database connectivity for readiness.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker probes cache connectivity for readiness.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services groups the usecase layer the routes need.
type Services struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Accounts     *usecase.AccountService
}

// Dependencies carries everything Register needs to wire the API surface.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Services    Services
	RateLimiter *middleware.RateLimiter
	Database    DatabaseChecker
	Cache       CacheChecker
}

// Register builds the Gin engine with all middleware and routes mounted.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	origins := []string{"*"}
	if deps.Config != nil && len(deps.Config.App.AllowedOrigins) > 0 {
		origins = deps.Config.App.AllowedOrigins
	}
	router.Use(middleware.CORS(origins))
	router.Use(middleware.Logger(deps.Logger))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		router.Use(metrics.Handler())
	} else if deps.Logger != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

	healthOpts := []handlers.HealthOption{}
	if deps.Database != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	health := handlers.NewHealthHandler(deps.Logger, healthOpts...)

	router.GET("/healthz", health.Status)
	router.GET("/readyz", health.Readiness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	loginLimit, registerLimit := rateLimits(deps)

	authRequired := middleware.RequireAuth(deps.Services.Auth)

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	handlers.NewAuthHandler(deps.Services.Auth, deps.Logger).
		RegisterRoutes(auth, authRequired, loginLimit)
	handlers.NewRegistrationHandler(deps.Services.Registration, deps.Logger).
		RegisterRoutes(auth, registerLimit)

	handlers.NewPasswordHandler(deps.Services.Accounts, deps.Logger).
		RegisterRoutes(auth.Group("", authRequired))

	support := api.Group("/support", authRequired)
	handlers.NewSupportHandler(deps.Logger).
		RegisterRoutes(support, middleware.RequirePremium())

	admin := api.Group("/admin/accounts", authRequired, middleware.RequireRole(domain.RoleAdmin))
	handlers.NewAdminAccountsHandler(deps.Services.Accounts, deps.Logger).
		RegisterRoutes(admin)

	return router
}

func rateLimits(deps Dependencies) (login, register gin.HandlerFunc) {
	passthrough := func(c *gin.Context) { c.Next() }
	login, register = passthrough, passthrough

	if deps.RateLimiter == nil || deps.Config == nil {
		return login, register
	}

	rl := deps.Config.RateLimit
	if rl.LoginMaxAttempts > 0 && rl.WindowDuration > 0 {
		login = deps.RateLimiter.Limit(middleware.RateLimitRule{
			Name:   "login",
			Limit:  rl.LoginMaxAttempts,
			Window: rl.WindowDuration,
		})
	}
	if rl.RegisterMaxAttempts > 0 && rl.WindowDuration > 0 {
		register = deps.RateLimiter.Limit(middleware.RateLimitRule{
			Name:   "register",
			Limit:  rl.RegisterMaxAttempts,
			Window: rl.WindowDuration,
		})
	}
	return login, register
}
