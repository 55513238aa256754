package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/quantsim-go/internal/api/handlers"
	"github.com/irfndi/quantsim-go/internal/config"
	"github.com/irfndi/quantsim-go/internal/database"
	"github.com/irfndi/quantsim-go/internal/metrics"
	"github.com/irfndi/quantsim-go/internal/middleware"
	"github.com/irfndi/quantsim-go/internal/observability"
	"github.com/irfndi/quantsim-go/internal/services"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config  *config.Config
	Service services.SimulationService
	// Redis is nil when Redis is disabled.
	Redis   *database.RedisClient
	Logger  *logrus.Logger
	// Metrics is nil when the Prometheus endpoint is disabled.
	Metrics *metrics.Metrics
	Version string
}

// NewRouter creates a gin engine with the global middleware chain and all
// routes registered.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Config.Sentry.Enabled && deps.Config.Sentry.DSN != "" {
		router.Use(observability.Middleware())
	}
	router.Use(middleware.RequestID())
	if deps.Config.Telemetry.Enabled {
		router.Use(otelgin.Middleware(deps.Config.Telemetry.ServiceName))
	}
	router.Use(middleware.TelemetryMiddleware())
	router.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(cors.New(corsConfig(deps.Config.Server.AllowedOrigins)))

	SetupRoutes(router, deps)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-API-Key"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	var redisChecker handlers.RedisHealthChecker
	if deps.Redis != nil {
		redisChecker = deps.Redis
	}
	healthHandler := handlers.NewHealthHandler(redisChecker, deps.Service, deps.Version)
	simulationHandler := handlers.NewSimulationHandler(deps.Service, cfg.Simulation)
	optionHandler := handlers.NewOptionHandler(deps.Service, cfg.Simulation)
	adminHandler := handlers.NewAdminHandler(deps.Service)

	// Probe endpoints
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)
	if deps.Metrics != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(deps.Metrics.Handler()))
	}

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled && deps.Redis != nil {
		limiter = middleware.NewRateLimiter(deps.Redis.Cmdable(), cfg.RateLimit.RequestsPerMinute, deps.Logger).Middleware()
	}

	auth := middleware.NewAuthMiddleware(cfg.Security.JWTSecret)
	clientAuth := auth.OptionalAuth()
	if cfg.Security.RequireAuth {
		clientAuth = auth.RequireAuth()
	}

	v1 := router.Group("/api/v1")
	{
		simulate := v1.Group("/simulate")
		if limiter != nil {
			simulate.Use(limiter)
		}
		simulate.Use(clientAuth)
		{
			simulate.GET("/stock", simulationHandler.SimulateStock)
			simulate.POST("/future", simulationHandler.SimulateFuture)
			simulate.POST("/etf", simulationHandler.SimulateETF)

			option := simulate.Group("/option")
			{
				option.POST("/black_scholes", optionHandler.PriceBlackScholes)
				option.POST("/black_scholes/series", optionHandler.PriceBlackScholesSeries)
				option.POST("/monte_carlo", optionHandler.PriceMonteCarlo)
			}
		}

		admin := middleware.NewAdminMiddleware(cfg.Security.AdminAPIKey, cfg.Security.AdminAPIKeyHash)
		if admin.Enabled() {
			adminGroup := v1.Group("/admin")
			adminGroup.Use(admin.RequireAdminAuth())
			{
				adminGroup.GET("/models", adminHandler.ListAssetModels)
			}
		}
	}
}
