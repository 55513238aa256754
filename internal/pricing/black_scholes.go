// Package pricing values European options in closed form and by Monte Carlo.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/simulation"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// validateTerms checks the fields shared by every pricing method except
// maturity, whose error message differs between methods. Every numeric
// field, maturity included, must be finite.
func validateTerms(c models.OptionContract) error {
	for _, f := range []struct {
		field string
		value float64
	}{
		{"underlying_price", c.UnderlyingPrice},
		{"strike_price", c.StrikePrice},
		{"time_to_maturity_years", c.TimeToMaturityYears},
		{"risk_free_rate", c.RiskFreeRate},
		{"volatility", c.Volatility},
	} {
		if err := utils.RequireFinite(f.field, f.value); err != nil {
			return err
		}
	}
	if c.TimeToMaturityYears*simulation.DaysPerYear > simulation.MaxHorizonDays {
		return utils.NewInvalidParameterf("time_to_maturity_years", "Time to maturity of %v years exceeds the supported maximum of %.0f days", c.TimeToMaturityYears, simulation.MaxHorizonDays)
	}
	if !(c.UnderlyingPrice > 0) {
		return utils.NewInvalidParameterf("underlying_price", "Underlying price (S) must be positive. Got %v", c.UnderlyingPrice)
	}
	if !(c.StrikePrice > 0) {
		return utils.NewInvalidParameterf("strike_price", "Strike price (K) must be positive. Got %v", c.StrikePrice)
	}
	if !(c.Volatility > 0) {
		return utils.NewInvalidParameterf("volatility", "Volatility (sigma) must be positive. Got %v", c.Volatility)
	}
	return nil
}

func validateContract(c models.OptionContract) error {
	if err := validateTerms(c); err != nil {
		return err
	}
	if !(c.TimeToMaturityYears > 0) {
		return utils.NewInvalidParameterf("time_to_maturity_years", "Time to maturity (T) must be positive. Got %v", c.TimeToMaturityYears)
	}
	return nil
}

type bsTerms struct {
	d1, d2   float64
	sqrtT    float64
	discount float64
}

func computeTerms(c models.OptionContract) bsTerms {
	sqrtT := math.Sqrt(c.TimeToMaturityYears)
	d1 := (math.Log(c.UnderlyingPrice/c.StrikePrice) +
		(c.RiskFreeRate+0.5*c.Volatility*c.Volatility)*c.TimeToMaturityYears) /
		(c.Volatility * sqrtT)
	return bsTerms{
		d1:       d1,
		d2:       d1 - c.Volatility*sqrtT,
		sqrtT:    sqrtT,
		discount: math.Exp(-c.RiskFreeRate * c.TimeToMaturityYears),
	}
}

func bsValue(c models.OptionContract, t bsTerms) float64 {
	n := distuv.UnitNormal
	if c.OptionType == models.Put {
		return c.StrikePrice*t.discount*n.CDF(-t.d2) - c.UnderlyingPrice*n.CDF(-t.d1)
	}
	return c.UnderlyingPrice*n.CDF(t.d1) - c.StrikePrice*t.discount*n.CDF(t.d2)
}

func bsGreeks(c models.OptionContract, t bsTerms) models.Greeks {
	n := distuv.UnitNormal
	pdf := n.Prob(t.d1)
	g := models.Greeks{
		Gamma: pdf / (c.UnderlyingPrice * c.Volatility * t.sqrtT),
		Vega:  c.UnderlyingPrice * pdf * t.sqrtT,
	}

	decay := -c.UnderlyingPrice * pdf * c.Volatility / (2 * t.sqrtT)
	carry := c.RiskFreeRate * c.StrikePrice * t.discount
	if c.OptionType == models.Put {
		g.Delta = n.CDF(t.d1) - 1
		g.Theta = decay + carry*n.CDF(-t.d2)
		g.Rho = -c.StrikePrice * c.TimeToMaturityYears * t.discount * n.CDF(-t.d2)
	} else {
		g.Delta = n.CDF(t.d1)
		g.Theta = decay - carry*n.CDF(t.d2)
		g.Rho = c.StrikePrice * c.TimeToMaturityYears * t.discount * n.CDF(t.d2)
	}
	return g
}

// BlackScholesPrice prices c in closed form and attaches its Greeks.
func BlackScholesPrice(c models.OptionContract) (models.PricingResult, error) {
	if err := validateContract(c); err != nil {
		return models.PricingResult{}, err
	}

	t := computeTerms(c)
	price := bsValue(c, t)
	greeks := bsGreeks(c, t)
	if err := utils.CheckFiniteResult("price", []float64{price}); err != nil {
		return models.PricingResult{}, err
	}
	if err := utils.CheckFiniteResult("greeks", []float64{greeks.Delta, greeks.Gamma, greeks.Theta, greeks.Vega, greeks.Rho}); err != nil {
		return models.PricingResult{}, err
	}
	return models.PricingResult{
		OptionType:          c.OptionType,
		Method:              models.MethodBlackScholes,
		UnderlyingPrice:     c.UnderlyingPrice,
		StrikePrice:         c.StrikePrice,
		TimeToMaturityYears: c.TimeToMaturityYears,
		RiskFreeRate:        c.RiskFreeRate,
		Volatility:          c.Volatility,
		Price:               price,
		Greeks:              &greeks,
	}, nil
}

// BlackScholesGreeks returns Delta, Gamma, Theta (per year), Vega and Rho.
func BlackScholesGreeks(c models.OptionContract) (models.Greeks, error) {
	if err := validateContract(c); err != nil {
		return models.Greeks{}, err
	}
	return bsGreeks(c, computeTerms(c)), nil
}
