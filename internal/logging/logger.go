package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger interface defines the common logging methods.
// It is implemented by the JSON stdout logger and the OTLP logger.
type Logger interface {
	WithComponent(componentName string) *slog.Logger
	WithError(err error) *slog.Logger
	LogStartup(serviceName string, version string, port int)
	LogShutdown(serviceName string, reason string)
	LogSimulationEvent(kind string, details map[string]interface{})
	Logger() *slog.Logger
}

// StandardLogger provides a standardized logging interface
type StandardLogger struct {
	logger Logger
}

// NewStandardLogger creates a JSON logger on stdout tagged with environment.
func NewStandardLogger(logLevel string, environment string) *StandardLogger {
	return newStandardLoggerTo(os.Stdout, logLevel, environment)
}

func newStandardLoggerTo(w io.Writer, logLevel string, environment string) *StandardLogger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	}))
	if environment != "" {
		logger = logger.With("environment", environment)
	}
	return &StandardLogger{logger: &slogAdapter{logger: logger}}
}

// NewStandardOTLPLogger creates a logger exporting over OTLP. It falls back
// to JSON on stdout if the exporter cannot be created. The returned
// OTLPLogger must be shut down to flush buffered records; it is nil on
// fallback.
func NewStandardOTLPLogger(config OTLPConfig) (*StandardLogger, *OTLPLogger) {
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		fallback := NewStandardLogger(config.LogLevel, config.Environment)
		fallback.Logger().Warn("OTLP log exporter unavailable, using stdout", "error", err.Error())
		return fallback, nil
	}
	return &StandardLogger{logger: &slogAdapter{logger: otlpLogger.Logger()}}, otlpLogger
}

// WithComponent creates a logger with component context
func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.WithComponent(componentName)
}

// WithError creates a logger with error context
func (l *StandardLogger) WithError(err error) *slog.Logger {
	return l.logger.WithError(err)
}

// LogStartup logs application startup information
func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.LogStartup(serviceName, version, port)
}

// LogShutdown logs application shutdown information
func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.LogShutdown(serviceName, reason)
}

// LogSimulationEvent logs an engine lifecycle or run event
func (l *StandardLogger) LogSimulationEvent(kind string, details map[string]interface{}) {
	l.logger.LogSimulationEvent(kind, details)
}

// Logger returns the underlying *slog.Logger
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger.Logger()
}

// NewLogrusLogger builds the logrus logger used by services and the request
// logging middleware. format is "json" or "text".
func NewLogrusLogger(level string, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(ParseLogrusLevel(level))
	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// slogAdapter implements Logger on top of any *slog.Logger
type slogAdapter struct {
	logger *slog.Logger
}

func (s *slogAdapter) WithComponent(componentName string) *slog.Logger {
	return s.logger.With("component", componentName)
}

func (s *slogAdapter) WithError(err error) *slog.Logger {
	return s.logger.With("error", err.Error())
}

func (s *slogAdapter) LogStartup(serviceName string, version string, port int) {
	s.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

func (s *slogAdapter) LogShutdown(serviceName string, reason string) {
	s.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

func (s *slogAdapter) LogSimulationEvent(kind string, details map[string]interface{}) {
	fields := []interface{}{
		"event", "simulation",
		"kind", kind,
	}
	for k, v := range details {
		fields = append(fields, k, v)
	}
	s.logger.Info("Simulation event", fields...)
}

func (s *slogAdapter) Logger() *slog.Logger {
	return s.logger
}
