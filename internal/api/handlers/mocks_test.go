package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/quantsim-go/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockSimulationService is a testify mock of services.SimulationService.
type MockSimulationService struct {
	mock.Mock
}

func (m *MockSimulationService) SimulateStock(ctx context.Context, req models.PathSimulationRequest) (models.PricePath, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.PricePath), args.Error(1)
}

func (m *MockSimulationService) PriceBlackScholes(ctx context.Context, contract models.OptionContract) (models.PricingResult, error) {
	args := m.Called(ctx, contract)
	return args.Get(0).(models.PricingResult), args.Error(1)
}

func (m *MockSimulationService) PriceMonteCarlo(ctx context.Context, spec models.MonteCarloSpec) (models.PricingResult, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(models.PricingResult), args.Error(1)
}

func (m *MockSimulationService) BlackScholesSeries(ctx context.Context, req models.OptionSeriesRequest) (models.OptionSeries, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.OptionSeries), args.Error(1)
}

func (m *MockSimulationService) SimulateFutures(ctx context.Context, contract models.FuturesContract) (models.FuturesResult, error) {
	args := m.Called(ctx, contract)
	return args.Get(0).(models.FuturesResult), args.Error(1)
}

func (m *MockSimulationService) SimulateETF(ctx context.Context, def models.EtfDefinition) (models.PricePath, error) {
	args := m.Called(ctx, def)
	return args.Get(0).(models.PricePath), args.Error(1)
}

func (m *MockSimulationService) AssetModels() []models.AssetModelConfig {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.AssetModelConfig)
}

// MockRedisHealth mocks the Redis health check.
type MockRedisHealth struct {
	mock.Mock
}

func (m *MockRedisHealth) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func u64(v uint64) *uint64   { return &v }
func f64(v float64) *float64 { return &v }

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decode(t, w)
	require.Equal(t, "success", body["status"], w.Body.String())
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	return data
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, code int, message string) {
	t.Helper()
	require.Equal(t, code, w.Code, w.Body.String())
	body := decode(t, w)
	require.Equal(t, "error", body["status"])
	if message != "" {
		require.Equal(t, message, body["error"])
	}
}
