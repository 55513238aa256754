package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/quantsim-go/internal/config"
)

// ErrNilClient is returned by RedisClient methods when no connection exists.
var ErrNilClient = errors.New("redis client is nil")

// RedisClient wraps the shared Redis connection used by the rate limiter
// and health checks.
type RedisClient struct {
	Client *redis.Client
	logger *logrus.Logger
}

// Options builds go-redis options from cfg.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisConnection connects to Redis and verifies the connection with a ping.
func NewRedisConnection(cfg config.RedisConfig, logger *logrus.Logger) (*RedisClient, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	rdb := redis.NewClient(Options(cfg))

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", rdb.Options().Addr).Info("Successfully connected to Redis")

	return &RedisClient{Client: rdb, logger: logger}, nil
}

// Cmdable exposes the connection for components that issue commands
// directly. It returns nil when there is no connection.
func (r *RedisClient) Cmdable() redis.Cmdable {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client
}

func (r *RedisClient) Close() {
	if r == nil || r.Client == nil {
		return
	}
	if err := r.Client.Close(); err != nil && r.logger != nil {
		r.logger.WithError(err).Warn("Error closing Redis connection")
		return
	}
	if r.logger != nil {
		r.logger.Info("Redis connection closed")
	}
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrNilClient
	}
	return r.Client.Ping(ctx).Err()
}
