package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/random"
	"github.com/irfndi/quantsim-go/internal/utils"
)

func twoAssetETF() models.EtfDefinition {
	return models.EtfDefinition{
		Constituents: []models.EtfConstituent{
			{Symbol: "AAPL", InitialPrice: 150, Drift: 0.08, Volatility: 0.25, Weight: 0.6},
			{Symbol: "MSFT", InitialPrice: 300, Drift: 0.06, Volatility: 0.2, Weight: 0.4},
		},
		SimulationDays: 15,
		TimeStepInDays: 1,
	}
}

func TestSimulateETF_InitialNAV(t *testing.T) {
	nav, err := SimulateETF(twoAssetETF(), random.NewSeeded(3))
	require.NoError(t, err)

	require.Len(t, nav.Prices, 16)
	require.Len(t, nav.Timestamps, 16)
	assert.Equal(t, 1.0, nav.Prices[0])
	assert.Equal(t, DefaultETFSymbol, nav.Symbol)
	for _, v := range nav.Prices {
		assert.Greater(t, v, 0.0)
	}
}

func TestSimulateETF_WeightsAreNotNormalized(t *testing.T) {
	def := twoAssetETF()
	def.Symbol = "LEVERED"
	def.Constituents[0].Weight = 1.5
	def.Constituents[1].Weight = 0.5

	nav, err := SimulateETF(def, random.NewSeeded(3))
	require.NoError(t, err)
	assert.Equal(t, "LEVERED", nav.Symbol)
	assert.Equal(t, 2.0, nav.Prices[0])
}

func TestSimulateETF_MatchesConstituentPaths(t *testing.T) {
	def := twoAssetETF()
	nav, err := SimulateETF(def, random.NewSeeded(77))
	require.NoError(t, err)

	// Re-create the constituent paths by consuming one generator in order.
	src := random.NewSeeded(77)
	var expected [16]float64
	for _, c := range def.Constituents {
		path, err := SimulateGBM(GBMInput{
			InitialPrice: c.InitialPrice,
			Drift:        c.Drift,
			Volatility:   c.Volatility,
			NumSteps:     def.SimulationDays,
			Dt:           1.0 / DaysPerYear,
		}, src)
		require.NoError(t, err)
		for i, p := range path.Prices {
			expected[i] += c.Weight * (p / c.InitialPrice)
		}
	}

	for i := range expected {
		assert.InDelta(t, expected[i], nav.Prices[i], 1e-12)
	}
}

func TestSimulateETF_EmptyConstituents(t *testing.T) {
	def := twoAssetETF()
	def.Constituents = nil

	_, err := SimulateETF(def, random.NewSeeded(1))
	require.Error(t, err)
	assert.True(t, utils.IsInvalidParameter(err))
	assert.Equal(t, "ETF constituents list cannot be empty", err.Error())
}

func TestSimulateETF_InvalidConstituentNamesSymbol(t *testing.T) {
	def := twoAssetETF()
	def.Constituents[1].Volatility = -0.1
	src := &constSource{}

	_, err := SimulateETF(def, src)
	require.Error(t, err)
	assert.True(t, utils.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "MSFT")
	assert.Zero(t, src.calls)
}

func TestSimulateETF_ZeroDays(t *testing.T) {
	def := twoAssetETF()
	def.SimulationDays = 0

	_, err := SimulateETF(def, random.NewSeeded(1))
	assert.True(t, utils.IsInvalidParameter(err))
}

func TestSimulateETF_NonFiniteInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.EtfDefinition)
		field  string
	}{
		{"infinite weight", func(d *models.EtfDefinition) { d.Constituents[0].Weight = math.Inf(1) }, "constituents.weight"},
		{"NaN drift", func(d *models.EtfDefinition) { d.Constituents[1].Drift = math.NaN() }, "constituents.drift"},
		{"horizon overflow", func(d *models.EtfDefinition) {
			d.SimulationDays = 1000
			d.TimeStepInDays = 1_000_000
		}, "simulation_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := twoAssetETF()
			tt.mutate(&def)

			_, err := SimulateETF(def, random.NewSeeded(1))
			var ip *utils.InvalidParameterError
			require.ErrorAs(t, err, &ip)
			assert.Equal(t, tt.field, ip.Field)
		})
	}
}

func TestSimulateETF_NAVOverflow(t *testing.T) {
	def := twoAssetETF()
	def.Constituents[0].Weight = math.MaxFloat64
	def.Constituents[1].Weight = math.MaxFloat64

	_, err := SimulateETF(def, random.NewSeeded(1))
	assert.True(t, utils.IsNonFiniteResult(err))
}
