package simulation

import (
	"fmt"

	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/random"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// DefaultETFSymbol labels an ETF path when the definition carries no symbol.
const DefaultETFSymbol = "SIMULATED_ETF"

func validateETF(def models.EtfDefinition) error {
	if len(def.Constituents) == 0 {
		return utils.NewInvalidParameter("constituents", "ETF constituents list cannot be empty")
	}
	if def.SimulationDays == 0 {
		return utils.NewInvalidParameter("simulation_days", "Simulation days must be positive. Got 0")
	}
	if def.TimeStepInDays == 0 {
		return utils.NewInvalidParameter("time_step_days", "Time step in days must be positive. Got 0")
	}
	if err := checkHorizon("simulation_days", def.SimulationDays, float64(def.TimeStepInDays)); err != nil {
		return err
	}
	for _, c := range def.Constituents {
		for _, v := range []struct {
			field string
			value float64
		}{
			{"constituents.initial_price", c.InitialPrice},
			{"constituents.drift", c.Drift},
			{"constituents.volatility", c.Volatility},
			{"constituents.weight", c.Weight},
		} {
			if err := utils.RequireFinite(v.field, v.value); err != nil {
				return err
			}
		}
		if !(c.InitialPrice > 0) {
			return utils.NewInvalidParameterf("constituents.initial_price", "Constituent '%s' initial price must be positive. Got %v", c.Symbol, c.InitialPrice)
		}
		if !(c.Volatility > 0) {
			return utils.NewInvalidParameterf("constituents.volatility", "Constituent '%s' volatility must be positive. Got %v", c.Symbol, c.Volatility)
		}
	}
	return nil
}

// SimulateETF simulates every constituent with one shared generator, in
// declaration order, and aggregates NAV_t = sum(w_i * S_i,t / S_i,0).
// Weights are used as given; NAV_0 equals their sum.
func SimulateETF(def models.EtfDefinition, src random.Source) (models.PricePath, error) {
	if err := validateETF(def); err != nil {
		return models.PricePath{}, err
	}

	dt := float64(def.TimeStepInDays) / DaysPerYear
	n := int(def.SimulationDays)
	nav := make([]float64, n+1)

	timestamps := Timestamps(n+1, dt)
	for _, c := range def.Constituents {
		path, err := SimulateGBM(GBMInput{
			InitialPrice: c.InitialPrice,
			Drift:        c.Drift,
			Volatility:   c.Volatility,
			NumSteps:     def.SimulationDays,
			Dt:           dt,
		}, src)
		if err != nil {
			return models.PricePath{}, fmt.Errorf("constituent %s: %w", c.Symbol, err)
		}

		for t, p := range path.Prices {
			nav[t] += c.Weight * (p / c.InitialPrice)
		}
	}

	if err := utils.CheckFiniteResult("nav_values", nav); err != nil {
		return models.PricePath{}, err
	}

	symbol := def.Symbol
	if symbol == "" {
		symbol = DefaultETFSymbol
	}

	return models.PricePath{
		Symbol:     symbol,
		Timestamps: timestamps,
		Prices:     nav,
	}, nil
}
