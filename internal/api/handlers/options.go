package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/irfndi/quantsim-go/internal/config"
	"github.com/irfndi/quantsim-go/internal/middleware"
	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/services"
	"github.com/irfndi/quantsim-go/internal/simulation"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// notApplicable fills OptionData fields that single-contract requests do
// not carry.
const notApplicable = "N/A"

// greekPlaces is the number of decimal places Greeks are rendered with.
const greekPlaces = 8

// OptionHandler serves the option pricing endpoints.
type OptionHandler struct {
	service  services.SimulationService
	defaults config.SimulationConfig
}

func NewOptionHandler(service services.SimulationService, defaults config.SimulationConfig) *OptionHandler {
	return &OptionHandler{service: service, defaults: defaults}
}

// BlackScholesRequest is the body of POST /simulate/option/black_scholes.
type BlackScholesRequest struct {
	UnderlyingSymbol    string  `json:"underlying_symbol,omitempty"`
	UnderlyingPrice     float64 `json:"underlying_price"`
	StrikePrice         float64 `json:"strike_price"`
	TimeToMaturityYears float64 `json:"time_to_maturity_years"`
	RiskFreeRate        float64 `json:"risk_free_rate"`
	Volatility          float64 `json:"volatility"`
	OptionType          string  `json:"option_type"`
}

func (r BlackScholesRequest) toContract() (models.OptionContract, error) {
	optionType, err := parseOptionType(r.OptionType)
	if err != nil {
		return models.OptionContract{}, err
	}
	return models.OptionContract{
		UnderlyingPrice:     r.UnderlyingPrice,
		StrikePrice:         r.StrikePrice,
		TimeToMaturityYears: r.TimeToMaturityYears,
		RiskFreeRate:        r.RiskFreeRate,
		Volatility:          r.Volatility,
		OptionType:          optionType,
	}, nil
}

// MonteCarloRequest is the body of POST /simulate/option/monte_carlo.
type MonteCarloRequest struct {
	UnderlyingSymbol       string  `json:"underlying_symbol,omitempty"`
	UnderlyingInitialPrice float64 `json:"underlying_initial_price"`
	StrikePrice            float64 `json:"strike_price"`
	TimeToMaturityYears    float64 `json:"time_to_maturity_years"`
	RiskFreeRate           float64 `json:"risk_free_rate"`
	UnderlyingVolatility   float64 `json:"underlying_volatility"`
	OptionType             string  `json:"option_type"`
	NumPaths               uint32  `json:"num_paths"`
	NumStepsPerPath        uint32  `json:"num_steps_per_path"`
	Seed                   *uint64 `json:"seed,omitempty"`
}

func (r MonteCarloRequest) toSpec() (models.MonteCarloSpec, error) {
	optionType, err := parseOptionType(r.OptionType)
	if err != nil {
		return models.MonteCarloSpec{}, err
	}
	return models.MonteCarloSpec{
		OptionContract: models.OptionContract{
			UnderlyingPrice:     r.UnderlyingInitialPrice,
			StrikePrice:         r.StrikePrice,
			TimeToMaturityYears: r.TimeToMaturityYears,
			RiskFreeRate:        r.RiskFreeRate,
			Volatility:          r.UnderlyingVolatility,
			OptionType:          optionType,
		},
		NumPaths:        r.NumPaths,
		NumStepsPerPath: r.NumStepsPerPath,
		Seed:            r.Seed,
	}, nil
}

// UnderlyingPathRequest describes the simulated underlying of a series.
type UnderlyingPathRequest struct {
	AssetIdentifier string   `json:"asset_identifier"`
	InitialPrice    float64  `json:"initial_price"`
	Days            *uint32  `json:"days,omitempty"`
	TimeStepDays    *float64 `json:"time_step_days,omitempty"`
	Seed            *uint64  `json:"seed,omitempty"`
	Drift           *float64 `json:"drift,omitempty"`
	Volatility      *float64 `json:"volatility,omitempty"`
}

// FixedOptionRequest holds the contract terms of a series.
type FixedOptionRequest struct {
	StrikePrice         float64 `json:"strike_price"`
	TimeToMaturityYears float64 `json:"time_to_maturity_years"`
	RiskFreeRate        float64 `json:"risk_free_rate"`
	Volatility          float64 `json:"volatility"`
	OptionType          string  `json:"option_type"`
}

// SeriesRequest is the body of POST /simulate/option/black_scholes/series.
type SeriesRequest struct {
	Underlying UnderlyingPathRequest `json:"underlying"`
	Option     FixedOptionRequest    `json:"option"`
}

func (r SeriesRequest) toRequest(defaults config.SimulationConfig) (models.OptionSeriesRequest, error) {
	query := StockQuery{
		AssetIdentifier: r.Underlying.AssetIdentifier,
		InitialPrice:    &r.Underlying.InitialPrice,
		Days:            r.Underlying.Days,
		TimeStepDays:    r.Underlying.TimeStepDays,
		Seed:            r.Underlying.Seed,
		Drift:           r.Underlying.Drift,
		Volatility:      r.Underlying.Volatility,
	}
	underlying, err := query.toRequest(defaults)
	if err != nil {
		return models.OptionSeriesRequest{}, err
	}
	optionType, err := parseOptionType(r.Option.OptionType)
	if err != nil {
		return models.OptionSeriesRequest{}, err
	}
	return models.OptionSeriesRequest{
		Underlying: underlying,
		Option: models.FixedOptionParams{
			StrikePrice:         r.Option.StrikePrice,
			TimeToMaturityYears: r.Option.TimeToMaturityYears,
			RiskFreeRate:        r.Option.RiskFreeRate,
			Volatility:          r.Option.Volatility,
			OptionType:          optionType,
		},
	}, nil
}

// GreeksData renders Greeks as fixed-precision decimals.
type GreeksData struct {
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Theta decimal.Decimal `json:"theta"`
	Vega  decimal.Decimal `json:"vega"`
	Rho   decimal.Decimal `json:"rho"`
}

func newGreeksData(g *models.Greeks) *GreeksData {
	if g == nil {
		return nil
	}
	round := func(v float64) decimal.Decimal {
		return decimal.NewFromFloat(v).Round(greekPlaces)
	}
	return &GreeksData{
		Delta: round(g.Delta),
		Gamma: round(g.Gamma),
		Theta: round(g.Theta),
		Vega:  round(g.Vega),
		Rho:   round(g.Rho),
	}
}

// OptionData is the payload of every option endpoint. Single-contract
// pricing fills Price; a series fills the three slices instead.
type OptionData struct {
	UnderlyingSymbol string      `json:"underlying_symbol"`
	OptionType       string      `json:"option_type"`
	StrikePrice      float64     `json:"strike_price"`
	MaturityDate     string      `json:"maturity_date"`
	Method           string      `json:"method,omitempty"`
	Price            *float64    `json:"price,omitempty"`
	Greeks           *GreeksData `json:"greeks,omitempty"`
	NumPaths         uint32      `json:"num_paths,omitempty"`
	NumStepsPerPath  uint32      `json:"num_steps_per_path,omitempty"`
	StandardError    float64     `json:"standard_error,omitempty"`
	UnderlyingPrices []float64   `json:"underlying_prices,omitempty"`
	OptionPrices     []float64   `json:"option_prices,omitempty"`
	Timestamps       []string    `json:"timestamps,omitempty"`
}

func parseOptionType(s string) (models.OptionType, error) {
	if s == "" {
		return 0, utils.NewValidationError("option_type is required")
	}
	t, err := models.ParseOptionType(s)
	if err != nil {
		return 0, utils.NewValidationError(err.Error())
	}
	return t, nil
}

// maturityDate renders the maturity of a contract priced at the epoch.
func maturityDate(years float64) string {
	return simulation.TimeAt(years).Format(TimestampLayout)
}

func symbolOrNA(symbol string) string {
	if symbol == "" {
		return notApplicable
	}
	return symbol
}

func newPricingData(symbol string, result models.PricingResult) OptionData {
	price := result.Price
	return OptionData{
		UnderlyingSymbol: symbolOrNA(symbol),
		OptionType:       result.OptionType.String(),
		StrikePrice:      result.StrikePrice,
		MaturityDate:     maturityDate(result.TimeToMaturityYears),
		Method:           string(result.Method),
		Price:            &price,
		Greeks:           newGreeksData(result.Greeks),
		NumPaths:         result.NumPaths,
		NumStepsPerPath:  result.NumStepsPerPath,
		StandardError:    result.StandardError,
	}
}

// PriceBlackScholes handles POST /api/v1/simulate/option/black_scholes.
func (h *OptionHandler) PriceBlackScholes(c *gin.Context) {
	var req BlackScholesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "request body", err)
		return
	}
	contract, err := req.toContract()
	if err != nil {
		respondBindError(c, "request body", err)
		return
	}

	result, err := h.service.PriceBlackScholes(c.Request.Context(), contract)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondSuccess(c, newPricingData(req.UnderlyingSymbol, result))
}

// PriceMonteCarlo handles POST /api/v1/simulate/option/monte_carlo.
func (h *OptionHandler) PriceMonteCarlo(c *gin.Context) {
	var req MonteCarloRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "request body", err)
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		respondBindError(c, "request body", err)
		return
	}
	middleware.AddSpanAttribute(c, "mc.num_paths", spec.NumPaths)

	result, err := h.service.PriceMonteCarlo(c.Request.Context(), spec)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondSuccess(c, newPricingData(req.UnderlyingSymbol, result))
}

// PriceBlackScholesSeries handles POST /api/v1/simulate/option/black_scholes/series.
func (h *OptionHandler) PriceBlackScholesSeries(c *gin.Context) {
	var req SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "request body", err)
		return
	}
	seriesReq, err := req.toRequest(h.defaults)
	if err != nil {
		respondBindError(c, "request body", err)
		return
	}

	series, err := h.service.BlackScholesSeries(c.Request.Context(), seriesReq)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondSuccess(c, OptionData{
		UnderlyingSymbol: series.Underlying.Symbol,
		OptionType:       series.OptionType.String(),
		StrikePrice:      series.StrikePrice,
		MaturityDate:     series.MaturityDate.Format(TimestampLayout),
		Method:           string(models.MethodBlackScholes),
		UnderlyingPrices: series.Underlying.Prices,
		OptionPrices:     series.OptionPrices,
		Timestamps:       formatTimestamps(series.Underlying.Timestamps),
	})
}
