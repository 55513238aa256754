package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/irfndi/quantsim-go/internal/assets"
	"github.com/irfndi/quantsim-go/internal/config"
	"github.com/irfndi/quantsim-go/internal/database"
	"github.com/irfndi/quantsim-go/internal/metrics"
	"github.com/irfndi/quantsim-go/internal/middleware"
	"github.com/irfndi/quantsim-go/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Port: 0, AllowedOrigins: []string{"http://localhost:3000"}},
		Simulation: config.SimulationConfig{
			DefaultSteps:    30,
			TimeStepMinutes: 1440,
			MaxSteps:        1000,
			MaxPaths:        20000,
		},
		AssetModels: []config.AssetModelEntry{
			{
				AssetType:         "Stock",
				IdentifierPattern: "AAPL",
				ModelKind:         "GeometricBrownianMotion",
				Parameters:        config.AssetModelParameter{Drift: 0.08, Volatility: 0.25},
			},
		},
		Telemetry: config.TelemetryConfig{Exporter: "stdout", ServiceName: "quantsim-go"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, redis *database.RedisClient) *gin.Engine {
	t.Helper()
	table, err := cfg.AssetModelConfigs()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewRouter(Dependencies{
		Config:  cfg,
		Service: services.NewEngine(assets.NewTable(table), cfg.Simulation, logger),
		Redis:   redis,
		Logger:  logger,
		Version: "test",
	})
}

func perform(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRoutes_BlackScholesScenario(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	w := perform(router, "POST", "/api/v1/simulate/option/black_scholes", `{
		"underlying_price": 100, "strike_price": 105, "time_to_maturity_years": 0.5,
		"risk_free_rate": 0.02, "volatility": 0.22, "option_type": "Call"
	}`, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.InDelta(t, 4.5399, data["price"].(float64), 1e-4)
	assert.Equal(t, "Call", data["option_type"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRoutes_StockSimulationIsDeterministic(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	path := "/api/v1/simulate/stock?asset_identifier=AAPL&initial_price=150&seed=42"

	first := perform(router, "GET", path, "", nil)
	second := perform(router, "GET", path, "", nil)

	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, first.Body.String(), second.Body.String())

	data := decodeEnvelope(t, first)["data"].(map[string]interface{})
	assert.Len(t, data["prices"], 31)
	assert.Equal(t, "2024-01-01T00:00:00", data["timestamps"].([]interface{})[0])
}

func TestRoutes_UnknownIdentifier(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	w := perform(router, "GET", "/api/v1/simulate/stock?asset_identifier=UNKNOWN&initial_price=10", "", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "No model config found for stock identifier: UNKNOWN", body["error"])
}

func TestRoutes_FuturesAndETF(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	w := perform(router, "POST", "/api/v1/simulate/future", `{
		"underlying_symbol": "CL", "initial_spot_price": 80, "risk_free_rate": 0.05,
		"volatility": 0.3, "time_to_maturity_days": 30, "time_step_days": 1, "seed": 11
	}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	futures := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Len(t, futures["prices"], 31)
	assert.Len(t, futures["spot_prices"], 31)

	w = perform(router, "POST", "/api/v1/simulate/etf", `{
		"constituents": [
			{"symbol": "AAPL", "initial_price": 150, "drift": 0.08, "volatility": 0.25, "weight": 0.5},
			{"symbol": "MSFT", "initial_price": 300, "drift": 0.06, "volatility": 0.2, "weight": 0.5}
		],
		"simulation_days": 15, "time_step_days": 1, "seed": 5
	}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	etf := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "SIMULATED_ETF", etf["etf_symbol"])
	assert.Equal(t, 1.0, etf["nav_values"].([]interface{})[0])
}

func TestRoutes_MonteCarloWithinTolerance(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	w := perform(router, "POST", "/api/v1/simulate/option/monte_carlo", `{
		"underlying_initial_price": 100, "strike_price": 102, "time_to_maturity_years": 0.75,
		"risk_free_rate": 0.025, "underlying_volatility": 0.2, "option_type": "Put",
		"num_paths": 10000, "num_steps_per_path": 100, "seed": 456
	}`, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	stdErr := data["standard_error"].(float64)
	require.Greater(t, stdErr, 0.0)
	assert.InDelta(t, 6.957676, data["price"].(float64), 4*stdErr)
}

func TestRoutes_ExtremeTimeStepIsRejected(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	for _, step := range []string{"1e300", "Inf", "NaN", "1e6"} {
		w := perform(router, "GET", "/api/v1/simulate/stock?asset_identifier=AAPL&initial_price=100&days=3&time_step_days="+step, "", nil)
		require.Equal(t, http.StatusBadRequest, w.Code, "step %s: %s", step, w.Body.String())
		body := decodeEnvelope(t, w)
		assert.Equal(t, "error", body["status"])
		assert.Contains(t, body["error"], "time_step_days")
	}
}

func TestRoutes_LongStepsKeepTimestampsOrdered(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	w := perform(router, "GET", "/api/v1/simulate/stock?asset_identifier=AAPL&initial_price=100&days=3&time_step_days=200000&seed=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	ts := data["timestamps"].([]interface{})
	require.Len(t, ts, 4)
	for i := 1; i < len(ts); i++ {
		assert.Greater(t, ts[i].(string), ts[i-1].(string))
	}
	assert.Equal(t, "3666-09-29T00:00:00", ts[3])
}

func TestRoutes_NonFiniteFuturesIsAnErrorEnvelope(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	w := perform(router, "POST", "/api/v1/simulate/future", `{
		"underlying_symbol": "HOT", "initial_spot_price": 100, "risk_free_rate": 100000,
		"volatility": 0.2, "time_to_maturity_days": 3650, "time_step_days": 30
	}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := decodeEnvelope(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error"], "not a finite number")
}

func TestRoutes_Health(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	redis, err := database.NewRedisConnection(config.RedisConfig{Host: mr.Host(), Port: port}, nil)
	require.NoError(t, err)
	defer redis.Close()

	router := newTestRouter(t, testConfig(), redis)

	w := perform(router, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeEnvelope(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 1.0, body["asset_models"])

	assert.Equal(t, http.StatusOK, perform(router, "GET", "/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(router, "GET", "/ready", "", nil).Code)
}

func TestRoutes_RateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	redis, err := database.NewRedisConnection(config.RedisConfig{Host: mr.Host(), Port: port}, nil)
	require.NoError(t, err)
	defer redis.Close()

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	router := newTestRouter(t, cfg, redis)

	path := "/api/v1/simulate/stock?asset_identifier=AAPL&initial_price=150&days=5&seed=1"
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, perform(router, "GET", path, "", nil).Code)
	}
	// A request can straddle a minute boundary and land in a fresh window
	if codes[2] == http.StatusOK {
		mr.FlushAll()
		codes = codes[:0]
		for i := 0; i < 3; i++ {
			codes = append(codes, perform(router, "GET", path, "", nil).Code)
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(router, "GET", "/live", "", nil).Code)
	}
}

func TestRoutes_RequireAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{JWTSecret: "route-secret", RequireAuth: true}
	router := newTestRouter(t, cfg, nil)
	path := "/api/v1/simulate/stock?asset_identifier=AAPL&initial_price=150&days=5&seed=1"

	w := perform(router, "GET", path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := middleware.NewAuthMiddleware("route-secret").GenerateToken("client-1", "simulate", time.Hour)
	require.NoError(t, err)
	w = perform(router, "GET", path, "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_Admin(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	assert.Equal(t, http.StatusNotFound, perform(router, "GET", "/api/v1/admin/models", "", nil).Code)

	cfg := testConfig()
	cfg.Security.AdminAPIKey = "admin-key"
	router = newTestRouter(t, cfg, nil)

	assert.Equal(t, http.StatusUnauthorized, perform(router, "GET", "/api/v1/admin/models", "", nil).Code)

	w := perform(router, "GET", "/api/v1/admin/models", "", map[string]string{"X-API-Key": "admin-key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"identifier_pattern":"AAPL"`))
}

func TestRoutes_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	w := perform(router, "OPTIONS", "/api/v1/simulate/etf", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": "POST",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"https://a.example", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowOrigins)
}

func TestRoutes_Metrics(t *testing.T) {
	cfg := testConfig()
	table, err := cfg.AssetModelConfigs()
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m := metrics.New()
	router := NewRouter(Dependencies{
		Config:  cfg,
		Service: services.NewEngine(assets.NewTable(table), cfg.Simulation, logger).WithMetrics(m),
		Logger:  logger,
		Metrics: m,
	})

	w := perform(router, "GET", "/api/v1/simulate/stock?asset_identifier=AAPL&initial_price=150&days=5&seed=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(router, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `quantsim_http_requests_total{method="GET",route="/api/v1/simulate/stock",status="200"} 1`)
	assert.Contains(t, body, `quantsim_simulations_total{operation="engine.simulate_stock",outcome="success"} 1`)
}

func TestRoutes_RequestSpanCarriesAssetIdentifier(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(previous)

	router := newTestRouter(t, testConfig(), nil)
	w := perform(router, "GET", "/api/v1/simulate/stock?asset_identifier=AAPL&initial_price=150&days=5&seed=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var found bool
	for _, span := range recorder.Ended() {
		if span.Name() == "HTTP GET /api/v1/simulate/stock" {
			found = true
			assert.Contains(t, span.Attributes(), attribute.String("asset.identifier", "AAPL"))
		}
	}
	assert.True(t, found, "request span not recorded")
}
