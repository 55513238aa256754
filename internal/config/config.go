package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/irfndi/quantsim-go/internal/models"
)

type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	LogFormat   string            `mapstructure:"log_format"`
	Server      ServerConfig      `mapstructure:"server"`
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	AssetModels []AssetModelEntry `mapstructure:"asset_models"`
	Redis       RedisConfig       `mapstructure:"redis"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Security    SecurityConfig    `mapstructure:"security"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// SimulationConfig holds engine-wide defaults and request limits.
type SimulationConfig struct {
	// DefaultSeed is used when a request carries no seed. Nil means entropy.
	DefaultSeed       *uint64       `mapstructure:"default_seed"`
	DefaultSteps      uint32        `mapstructure:"default_steps"`
	TimeStepMinutes   uint32        `mapstructure:"time_step_minutes"`
	MaxSteps          uint32        `mapstructure:"max_steps"`
	MaxPaths          uint32        `mapstructure:"max_paths"`
	MonteCarloWorkers int           `mapstructure:"monte_carlo_workers"`
	// MonteCarloTimeout bounds one Monte Carlo pricing run. Zero disables it.
	MonteCarloTimeout time.Duration `mapstructure:"monte_carlo_timeout"`
}

// DefaultTimeStepDays converts TimeStepMinutes into days.
func (s SimulationConfig) DefaultTimeStepDays() float64 {
	return float64(s.TimeStepMinutes) / (24 * 60)
}

// AssetModelEntry is the configuration file form of models.AssetModelConfig.
type AssetModelEntry struct {
	AssetType         string              `mapstructure:"asset_type"`
	IdentifierPattern string              `mapstructure:"identifier_pattern"`
	ModelKind         string              `mapstructure:"model_kind"`
	Parameters        AssetModelParameter `mapstructure:"parameters"`
}

type AssetModelParameter struct {
	Drift      float64 `mapstructure:"drift"`
	Volatility float64 `mapstructure:"volatility"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Exporter       string  `mapstructure:"exporter"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

type SecurityConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	RequireAuth     bool   `mapstructure:"require_auth"`
	AdminAPIKey     string `mapstructure:"admin_api_key" json:"-" yaml:"-"`
	AdminAPIKeyHash string `mapstructure:"admin_api_key_hash" json:"-" yaml:"-"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SentryConfig defines settings for Sentry error reporting.
type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn" json:"-" yaml:"-"`
	Environment      string  `mapstructure:"environment"`
	Release          string  `mapstructure:"release"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

// Load reads config.yaml from ./configs or the working directory. A missing
// file is not an error; defaults and environment variables apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	return load(v, true)
}

// LoadFromPath reads the configuration file at path, which must exist.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v, false)
}

func load(v *viper.Viper, tolerateMissing bool) (*Config, error) {
	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	bindings := map[string]string{
		"security.jwt_secret":     "JWT_SECRET",
		"security.admin_api_key":  "ADMIN_API_KEY",
		"simulation.default_seed": "SIMULATION_DEFAULT_SEED",
		"telemetry.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
		"sentry.dsn":              "SENTRY_DSN",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !tolerateMissing || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)
	config.Sentry.DSN = strings.TrimSpace(config.Sentry.DSN)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks limits, security settings and the asset model table.
func (c *Config) Validate() error {
	if c.Simulation.MaxSteps == 0 {
		return errors.New("simulation.max_steps must be positive")
	}
	if c.Simulation.MaxPaths == 0 {
		return errors.New("simulation.max_paths must be positive")
	}
	if c.Simulation.DefaultSteps == 0 || c.Simulation.DefaultSteps > c.Simulation.MaxSteps {
		return fmt.Errorf("simulation.default_steps must be between 1 and %d, got %d", c.Simulation.MaxSteps, c.Simulation.DefaultSteps)
	}
	if c.Simulation.TimeStepMinutes == 0 {
		return errors.New("simulation.time_step_minutes must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %d", c.RateLimit.RequestsPerMinute)
	}

	switch c.Telemetry.Exporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.exporter must be stdout or otlp, got %q", c.Telemetry.Exporter)
	}

	// Validate JWT secret when authentication is enforced outside development
	if c.Security.RequireAuth && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required when security.require_auth is set")
	}

	if c.Security.AdminAPIKeyHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Security.AdminAPIKeyHash)); err != nil {
			return fmt.Errorf("security.admin_api_key_hash is not a bcrypt hash: %w", err)
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		return fmt.Errorf("sentry.traces_sample_rate must be within [0, 1], got %v", c.Sentry.TracesSampleRate)
	}

	if _, err := c.AssetModelConfigs(); err != nil {
		return err
	}
	return nil
}

// AssetModelConfigs converts the configured asset models into engine
// values, parsing model kinds and checking volatilities.
func (c *Config) AssetModelConfigs() ([]models.AssetModelConfig, error) {
	out := make([]models.AssetModelConfig, 0, len(c.AssetModels))
	for i, e := range c.AssetModels {
		if e.IdentifierPattern == "" {
			return nil, fmt.Errorf("asset_models[%d]: identifier_pattern is required", i)
		}
		kind, err := models.ParseModelKind(e.ModelKind)
		if err != nil {
			return nil, fmt.Errorf("asset_models[%d] (%s): %w", i, e.IdentifierPattern, err)
		}
		if !(e.Parameters.Volatility > 0) {
			return nil, fmt.Errorf("asset_models[%d] (%s): volatility must be positive, got %v", i, e.IdentifierPattern, e.Parameters.Volatility)
		}
		out = append(out, models.AssetModelConfig{
			AssetType:         e.AssetType,
			IdentifierPattern: e.IdentifierPattern,
			ModelKind:         kind,
			Parameters: models.ModelParameters{
				GBM: models.GBMParameters{Drift: e.Parameters.Drift, Volatility: e.Parameters.Volatility},
			},
		})
	}
	return out, nil
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Simulation
	v.SetDefault("simulation.default_steps", 252)
	v.SetDefault("simulation.time_step_minutes", 1440)
	v.SetDefault("simulation.max_steps", 100000)
	v.SetDefault("simulation.max_paths", 1000000)
	v.SetDefault("simulation.monte_carlo_workers", 0)
	v.SetDefault("simulation.monte_carlo_timeout", "30s")

	// Asset models
	v.SetDefault("asset_models", []map[string]interface{}{
		{
			"asset_type":         "Stock",
			"identifier_pattern": "AAPL",
			"model_kind":         "GeometricBrownianMotion",
			"parameters":         map[string]interface{}{"drift": 0.08, "volatility": 0.25},
		},
		{
			"asset_type":         "Stock",
			"identifier_pattern": "MSFT",
			"model_kind":         "GeometricBrownianMotion",
			"parameters":         map[string]interface{}{"drift": 0.06, "volatility": 0.2},
		},
	})

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Rate limiting
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_minute", 120)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "quantsim-go")
	v.SetDefault("telemetry.service_version", "1.0.0")
	v.SetDefault("telemetry.sample_rate", 1.0)

	// Security
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.require_auth", false)
	v.SetDefault("security.admin_api_key", "")
	v.SetDefault("security.admin_api_key_hash", "")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Sentry
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.release", "")
	v.SetDefault("sentry.traces_sample_rate", 0.0)
}
