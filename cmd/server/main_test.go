package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
environment: test
server:
  port: 9090
  read_timeout: 5s
  write_timeout: 7s
simulation:
  default_steps: 10
  max_steps: 500
asset_models:
  - asset_type: Stock
    identifier_pattern: TSLA
    model_kind: GeometricBrownianMotion
    parameters:
      drift: 0.1
      volatility: 0.5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FromPath(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, uint32(10), cfg.Simulation.DefaultSteps)
	require.Len(t, cfg.AssetModels, 1)
	assert.Equal(t, "TSLA", cfg.AssetModels[0].IdentifierPattern)
}

func TestLoadConfig_MissingPath(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNewServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, err := loadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	srv, err := newServer(cfg, nil, logger)
	require.NoError(t, err)

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 7*time.Second, srv.WriteTimeout)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/simulate/stock?asset_identifier=TSLA&initial_price=200&seed=3", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"symbol":"TSLA"`)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quantsim_simulations_total{operation="engine.simulate_stock",outcome="success"} 1`)
}

func TestNewServer_MetricsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, err := loadConfig(writeConfig(t, testConfigYAML+"metrics:\n  enabled: false\n"))
	require.NoError(t, err)

	srv, err := newServer(cfg, nil, logrus.New())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
