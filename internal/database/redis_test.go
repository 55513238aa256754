package database

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/quantsim-go/internal/config"
)

func redisConfigFor(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
}

func TestNewRedisConnection(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisConnection(redisConfigFor(t, mr), nil)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
	require.NotNil(t, client.Cmdable())
	require.NoError(t, client.Cmdable().Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestNewRedisConnection_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfigFor(t, mr)
	mr.Close()

	client, err := NewRedisConnection(cfg, nil)
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisClient_HealthCheckAfterServerStops(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisConnection(redisConfigFor(t, mr), nil)
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestRedisClient_NilClient(t *testing.T) {
	client := &RedisClient{Client: nil}

	assert.NotPanics(t, func() { client.Close() })
	assert.Nil(t, client.Cmdable())
	assert.ErrorIs(t, client.HealthCheck(context.Background()), ErrNilClient)

	var nilClient *RedisClient
	assert.Nil(t, nilClient.Cmdable())
	assert.ErrorIs(t, nilClient.HealthCheck(context.Background()), ErrNilClient)
}
