package simulation

import (
	"math"

	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/random"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// SimulateFutures evolves the spot price with GBM and derives the
// cost-of-carry futures price F_i = S_i * exp(r * T_i) at every step, where
// T_i is the remaining maturity in years, floored at zero.
func SimulateFutures(c models.FuturesContract, src random.Source) (models.FuturesResult, error) {
	if err := validateFuturesRates(c); err != nil {
		return models.FuturesResult{}, err
	}
	if !(c.InitialSpotPrice > 0) {
		return models.FuturesResult{}, utils.NewInvalidParameterf("initial_spot_price", "Initial spot price must be positive. Got %v", c.InitialSpotPrice)
	}
	if !(c.Volatility > 0) {
		return models.FuturesResult{}, utils.NewInvalidParameterf("volatility", "Volatility (sigma) must be positive. Got %v", c.Volatility)
	}
	if c.TimeToMaturityInDays == 0 {
		return models.FuturesResult{}, utils.NewInvalidParameter("time_to_maturity_days", "Time to maturity in days must be positive. Got 0")
	}
	if c.TimeStepInDays == 0 {
		return models.FuturesResult{}, utils.NewInvalidParameter("time_step_days", "Time step in days must be positive. Got 0")
	}

	ttm := float64(c.TimeToMaturityInDays)
	step := float64(c.TimeStepInDays)
	numSteps := uint32(math.Ceil(ttm / step))
	if err := checkHorizon("time_to_maturity_days", numSteps, step); err != nil {
		return models.FuturesResult{}, err
	}

	drift := c.RiskFreeRate
	if c.Drift != nil {
		drift = *c.Drift
	}

	spot, err := SimulateGBM(GBMInput{
		InitialPrice: c.InitialSpotPrice,
		Drift:        drift,
		Volatility:   c.Volatility,
		NumSteps:     numSteps,
		Dt:           step / DaysPerYear,
	}, src)
	if err != nil {
		return models.FuturesResult{}, err
	}
	spot.Symbol = c.Symbol

	futures := make([]float64, len(spot.Prices))
	for i, s := range spot.Prices {
		remaining := math.Max(0, ttm-float64(i)*step) / DaysPerYear
		futures[i] = s * math.Exp(c.RiskFreeRate*remaining)
	}
	if err := utils.CheckFiniteResult("futures_prices", futures); err != nil {
		return models.FuturesResult{}, err
	}

	return models.FuturesResult{
		Futures: models.PricePath{
			Symbol:     c.Symbol,
			Timestamps: spot.Timestamps,
			Prices:     futures,
		},
		Spot: spot,
	}, nil
}

func validateFuturesRates(c models.FuturesContract) error {
	if err := utils.RequireFinite("initial_spot_price", c.InitialSpotPrice); err != nil {
		return err
	}
	if err := utils.RequireFinite("risk_free_rate", c.RiskFreeRate); err != nil {
		return err
	}
	if err := utils.RequireFinite("volatility", c.Volatility); err != nil {
		return err
	}
	if c.Drift != nil {
		return utils.RequireFinite("drift", *c.Drift)
	}
	return nil
}
