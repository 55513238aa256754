package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/quantsim-go/internal/config"
	"github.com/irfndi/quantsim-go/internal/middleware"
	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/services"
)

// SimulationHandler serves the path simulation endpoints.
type SimulationHandler struct {
	service  services.SimulationService
	defaults config.SimulationConfig
}

// NewSimulationHandler creates a handler. defaults fill in stock query
// parameters the caller leaves out.
func NewSimulationHandler(service services.SimulationService, defaults config.SimulationConfig) *SimulationHandler {
	return &SimulationHandler{service: service, defaults: defaults}
}

// StockQuery holds the query parameters of GET /simulate/stock.
type StockQuery struct {
	AssetIdentifier string   `form:"asset_identifier"`
	InitialPrice    *float64 `form:"initial_price"`
	Days            *uint32  `form:"days"`
	TimeStepDays    *float64 `form:"time_step_days"`
	Seed            *uint64  `form:"seed"`
	Drift           *float64 `form:"drift"`
	Volatility      *float64 `form:"volatility"`
}

// toRequest converts the query into an engine request, applying defaults.
func (q StockQuery) toRequest(defaults config.SimulationConfig) (models.PathSimulationRequest, error) {
	if err := requireField("asset_identifier", q.AssetIdentifier != ""); err != nil {
		return models.PathSimulationRequest{}, err
	}
	if err := requireField("initial_price", q.InitialPrice != nil); err != nil {
		return models.PathSimulationRequest{}, err
	}

	req := models.PathSimulationRequest{
		Identifier:         q.AssetIdentifier,
		InitialPrice:       *q.InitialPrice,
		NumSteps:           defaults.DefaultSteps,
		TimeStepInDays:     defaults.DefaultTimeStepDays(),
		Seed:               q.Seed,
		DriftOverride:      q.Drift,
		VolatilityOverride: q.Volatility,
	}
	if q.Days != nil {
		req.NumSteps = *q.Days
	}
	if q.TimeStepDays != nil {
		req.TimeStepInDays = *q.TimeStepDays
	}
	return req, nil
}

// StockData is the payload of a stock simulation.
type StockData struct {
	Symbol     string    `json:"symbol"`
	Timestamps []string  `json:"timestamps"`
	Prices     []float64 `json:"prices"`
}

// FutureRequest is the body of POST /simulate/future.
type FutureRequest struct {
	UnderlyingSymbol   string   `json:"underlying_symbol"`
	InitialSpotPrice   float64  `json:"initial_spot_price"`
	RiskFreeRate       float64  `json:"risk_free_rate"`
	Volatility         float64  `json:"volatility"`
	TimeToMaturityDays uint32   `json:"time_to_maturity_days"`
	TimeStepDays       uint32   `json:"time_step_days"`
	Seed               *uint64  `json:"seed,omitempty"`
	Drift              *float64 `json:"drift,omitempty"`
}

func (r FutureRequest) toContract() models.FuturesContract {
	return models.FuturesContract{
		Symbol:               r.UnderlyingSymbol,
		InitialSpotPrice:     r.InitialSpotPrice,
		RiskFreeRate:         r.RiskFreeRate,
		Volatility:           r.Volatility,
		TimeToMaturityInDays: r.TimeToMaturityDays,
		TimeStepInDays:       r.TimeStepDays,
		Seed:                 r.Seed,
		Drift:                r.Drift,
	}
}

// FutureData is the payload of a futures simulation.
type FutureData struct {
	ContractSymbol string    `json:"contract_symbol"`
	Timestamps     []string  `json:"timestamps"`
	Prices         []float64 `json:"prices"`
	SpotPrices     []float64 `json:"spot_prices,omitempty"`
}

// EtfConstituentRequest is one holding in an ETF request.
type EtfConstituentRequest struct {
	Symbol       string  `json:"symbol"`
	InitialPrice float64 `json:"initial_price"`
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`
	Weight       float64 `json:"weight"`
}

// EtfRequest is the body of POST /simulate/etf.
type EtfRequest struct {
	Symbol         string                  `json:"symbol,omitempty"`
	Constituents   []EtfConstituentRequest `json:"constituents"`
	SimulationDays uint32                  `json:"simulation_days"`
	TimeStepDays   uint32                  `json:"time_step_days"`
	Seed           *uint64                 `json:"seed,omitempty"`
}

func (r EtfRequest) toDefinition() models.EtfDefinition {
	constituents := make([]models.EtfConstituent, len(r.Constituents))
	for i, c := range r.Constituents {
		constituents[i] = models.EtfConstituent{
			Symbol:       c.Symbol,
			InitialPrice: c.InitialPrice,
			Drift:        c.Drift,
			Volatility:   c.Volatility,
			Weight:       c.Weight,
		}
	}
	return models.EtfDefinition{
		Symbol:         r.Symbol,
		Constituents:   constituents,
		SimulationDays: r.SimulationDays,
		TimeStepInDays: r.TimeStepDays,
		Seed:           r.Seed,
	}
}

// EtfData is the payload of an ETF simulation.
type EtfData struct {
	EtfSymbol  string    `json:"etf_symbol"`
	Timestamps []string  `json:"timestamps"`
	NavValues  []float64 `json:"nav_values"`
}

// SimulateStock handles GET /api/v1/simulate/stock.
func (h *SimulationHandler) SimulateStock(c *gin.Context) {
	var query StockQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, "query parameters", err)
		return
	}
	req, err := query.toRequest(h.defaults)
	if err != nil {
		respondBindError(c, "query parameters", err)
		return
	}
	middleware.AddSpanAttribute(c, "asset.identifier", req.Identifier)

	path, err := h.service.SimulateStock(c.Request.Context(), req)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondSuccess(c, StockData{
		Symbol:     path.Symbol,
		Timestamps: formatTimestamps(path.Timestamps),
		Prices:     path.Prices,
	})
}

// SimulateFuture handles POST /api/v1/simulate/future.
func (h *SimulationHandler) SimulateFuture(c *gin.Context) {
	var req FutureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "request body", err)
		return
	}

	result, err := h.service.SimulateFutures(c.Request.Context(), req.toContract())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondSuccess(c, FutureData{
		ContractSymbol: req.UnderlyingSymbol,
		Timestamps:     formatTimestamps(result.Futures.Timestamps),
		Prices:         result.Futures.Prices,
		SpotPrices:     result.Spot.Prices,
	})
}

// SimulateETF handles POST /api/v1/simulate/etf.
func (h *SimulationHandler) SimulateETF(c *gin.Context) {
	var req EtfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "request body", err)
		return
	}

	def := req.toDefinition()
	middleware.AddSpanAttribute(c, "etf.constituents", len(def.Constituents))

	path, err := h.service.SimulateETF(c.Request.Context(), def)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondSuccess(c, EtfData{
		EtfSymbol:  path.Symbol,
		Timestamps: formatTimestamps(path.Timestamps),
		NavValues:  path.Prices,
	})
}
