package pricing

import (
	"fmt"

	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// BlackScholesSeries prices the fixed contract once for every underlying
// price. Maturity stays fixed across the series.
func BlackScholesSeries(fixed models.FixedOptionParams, underlying []float64) ([]float64, error) {
	out := make([]float64, len(underlying))
	for i, s := range underlying {
		c := models.OptionContract{
			UnderlyingPrice:     s,
			StrikePrice:         fixed.StrikePrice,
			TimeToMaturityYears: fixed.TimeToMaturityYears,
			RiskFreeRate:        fixed.RiskFreeRate,
			Volatility:          fixed.Volatility,
			OptionType:          fixed.OptionType,
		}
		if err := validateContract(c); err != nil {
			return nil, fmt.Errorf("series point %d: %w", i, err)
		}
		out[i] = bsValue(c, computeTerms(c))
	}
	if err := utils.CheckFiniteResult("option_prices", out); err != nil {
		return nil, err
	}
	return out, nil
}
