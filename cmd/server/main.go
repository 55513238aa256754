package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/quantsim-go/internal/api"
	"github.com/irfndi/quantsim-go/internal/assets"
	"github.com/irfndi/quantsim-go/internal/config"
	"github.com/irfndi/quantsim-go/internal/database"
	"github.com/irfndi/quantsim-go/internal/logging"
	"github.com/irfndi/quantsim-go/internal/metrics"
	"github.com/irfndi/quantsim-go/internal/observability"
	"github.com/irfndi/quantsim-go/internal/services"
	"github.com/irfndi/quantsim-go/internal/telemetry"
)

var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	// A missing .env file is fine
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	stdLogger, otlpLogger := logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == telemetry.ExporterOTLP,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
	})

	// Initialize telemetry first
	provider, err := telemetry.InitTelemetryWithProvider(context.Background(), &telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Environment,
		SampleRate:     cfg.Telemetry.SampleRate,
		LogLevel:       cfg.LogLevel,
	}, stdLogger.WithComponent("telemetry"))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			stdLogger.WithError(err).Error("Failed to shutdown telemetry")
		}
		if otlpLogger != nil {
			if err := otlpLogger.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to shutdown log exporter: %v\n", err)
			}
		}
	}()

	logrusLogger := logging.NewLogrusLogger(cfg.LogLevel, cfg.LogFormat)

	sentryEnabled, err := observability.InitSentry(cfg.Sentry, version, cfg.Environment)
	if err != nil {
		logrusLogger.WithError(err).Warn("Error reporting disabled")
		cfg.Sentry.Enabled = false
	}
	if sentryEnabled {
		defer observability.Flush(context.Background())
	}

	var redis *database.RedisClient
	if cfg.Redis.Enabled {
		redis, err = database.NewRedisConnection(cfg.Redis, logrusLogger)
		if err != nil {
			// Redis only backs rate limiting; serve without it
			logrusLogger.WithError(err).Warn("Redis unavailable, rate limiting disabled")
			redis = nil
		} else {
			defer redis.Close()
		}
	}

	srv, err := newServer(cfg, redis, logrusLogger)
	if err != nil {
		return err
	}
	stdLogger.LogSimulationEvent("engine_configured", map[string]interface{}{
		"asset_models": len(cfg.AssetModels),
		"max_steps":    cfg.Simulation.MaxSteps,
		"max_paths":    cfg.Simulation.MaxPaths,
		"rate_limit":   cfg.RateLimit.Enabled && redis != nil,
		"metrics":      cfg.Metrics.Enabled,
	})

	errCh := make(chan error, 1)
	go func() {
		stdLogger.LogStartup(cfg.Telemetry.ServiceName, version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	stdLogger.LogShutdown(cfg.Telemetry.ServiceName, "signal received")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrusLogger.Info("Server exited gracefully")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// newServer wires the engine and router into an http.Server.
func newServer(cfg *config.Config, redis *database.RedisClient, logger *logrus.Logger) (*http.Server, error) {
	table, err := cfg.AssetModelConfigs()
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := services.NewEngine(assets.NewTable(table), cfg.Simulation, logger)
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		engine.WithMetrics(m)
	}
	router := api.NewRouter(api.Dependencies{
		Config:  cfg,
		Service: engine,
		Redis:   redis,
		Logger:  logger,
		Metrics: m,
		Version: version,
	})

	// Create HTTP server with security timeouts
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}
