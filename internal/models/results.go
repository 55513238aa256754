package models

import "time"

// PricePath is a time series whose index 0 is the t=0 state.
type PricePath struct {
	Symbol     string
	Timestamps []time.Time
	Prices     []float64
}

// Len returns the number of points on the path.
func (p PricePath) Len() int {
	return len(p.Prices)
}

// Last returns the terminal price, or 0 for an empty path.
func (p PricePath) Last() float64 {
	if len(p.Prices) == 0 {
		return 0
	}
	return p.Prices[len(p.Prices)-1]
}

// PricingMethod records how an option price was obtained.
type PricingMethod string

const (
	MethodBlackScholes PricingMethod = "black_scholes"
	MethodMonteCarlo   PricingMethod = "monte_carlo"
)

// Greeks are the first-order (and gamma) sensitivities of an option price.
// Theta is per year.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// PricingResult is the outcome of pricing a single option.
type PricingResult struct {
	OptionType          OptionType
	Method              PricingMethod
	UnderlyingPrice     float64
	StrikePrice         float64
	TimeToMaturityYears float64
	RiskFreeRate        float64
	Volatility          float64
	Price               float64
	Greeks              *Greeks
	NumPaths            uint32
	NumStepsPerPath     uint32
	// StandardError is the discounted sample standard deviation of the
	// payoffs over sqrt(NumPaths). Monte Carlo only.
	StandardError float64
}

// FuturesResult holds the futures path and the spot path it was derived from.
type FuturesResult struct {
	Futures PricePath
	Spot    PricePath
}

// OptionSeries is an option priced at every point of an underlying path.
type OptionSeries struct {
	Underlying   PricePath
	OptionType   OptionType
	StrikePrice  float64
	MaturityDate time.Time
	OptionPrices []float64
}
