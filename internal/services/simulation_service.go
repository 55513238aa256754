package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/irfndi/quantsim-go/internal/assets"
	"github.com/irfndi/quantsim-go/internal/config"
	"github.com/irfndi/quantsim-go/internal/metrics"
	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/pricing"
	"github.com/irfndi/quantsim-go/internal/random"
	"github.com/irfndi/quantsim-go/internal/simulation"
	"github.com/irfndi/quantsim-go/internal/telemetry"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// SimulationService runs engine operations on behalf of the HTTP layer.
type SimulationService interface {
	SimulateStock(ctx context.Context, req models.PathSimulationRequest) (models.PricePath, error)
	PriceBlackScholes(ctx context.Context, contract models.OptionContract) (models.PricingResult, error)
	PriceMonteCarlo(ctx context.Context, spec models.MonteCarloSpec) (models.PricingResult, error)
	BlackScholesSeries(ctx context.Context, req models.OptionSeriesRequest) (models.OptionSeries, error)
	SimulateFutures(ctx context.Context, contract models.FuturesContract) (models.FuturesResult, error)
	SimulateETF(ctx context.Context, def models.EtfDefinition) (models.PricePath, error)
	AssetModels() []models.AssetModelConfig
}

// Engine is the SimulationService backed by the in-process engine. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	table     *assets.Table
	limits    config.SimulationConfig
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	newSource func(seed *uint64) random.Source
}

// NewEngine creates the engine service over an immutable asset model table.
func NewEngine(table *assets.Table, limits config.SimulationConfig, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		table:  table,
		limits: limits,
		logger: logger,
		newSource: func(seed *uint64) random.Source {
			return random.New(seed)
		},
	}
}

// WithMetrics records every operation in m.
func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	return e
}

// seed returns the request seed or the configured default.
func (e *Engine) seed(requested *uint64) *uint64 {
	if requested != nil {
		return requested
	}
	return e.limits.DefaultSeed
}

func (e *Engine) checkSteps(field string, steps uint64) error {
	if e.limits.MaxSteps > 0 && steps > uint64(e.limits.MaxSteps) {
		return utils.NewInvalidParameterf(field, "Number of steps must not exceed %d. Got %d", e.limits.MaxSteps, steps)
	}
	return nil
}

func (e *Engine) log(operation string, start time.Time, err error, fields logrus.Fields) {
	elapsed := time.Since(start)
	e.metrics.ObserveSimulation(operation, elapsed, err)

	entry := e.logger.WithFields(fields).WithFields(logrus.Fields{
		"operation":   operation,
		"duration_ms": elapsed.Milliseconds(),
	})
	switch {
	case err == nil:
		entry.Debug("Simulation completed")
	case utils.IsClientError(err):
		entry.WithError(err).Info("Simulation rejected")
	default:
		entry.WithError(err).Error("Simulation failed")
	}
}

func (e *Engine) SimulateStock(ctx context.Context, req models.PathSimulationRequest) (path models.PricePath, err error) {
	start := time.Now()
	_, span := telemetry.StartEngineSpan(ctx, telemetry.SpanSimulateStock,
		attribute.String("asset.identifier", req.Identifier),
		attribute.Int64("simulation.num_steps", int64(req.NumSteps)),
	)
	defer func() {
		telemetry.EndEngineSpan(span, err, attribute.Int("simulation.points", path.Len()))
		e.log(telemetry.SpanSimulateStock, start, err, logrus.Fields{"symbol": req.Identifier})
	}()

	if err = e.checkSteps("days", uint64(req.NumSteps)); err != nil {
		return models.PricePath{}, err
	}
	_, params, err := e.table.Resolve(req.Identifier, req.Overrides())
	if err != nil {
		return models.PricePath{}, err
	}
	return simulation.SimulateStock(req, params, e.newSource(e.seed(req.Seed)))
}

func (e *Engine) PriceBlackScholes(ctx context.Context, contract models.OptionContract) (result models.PricingResult, err error) {
	start := time.Now()
	_, span := telemetry.StartEngineSpan(ctx, telemetry.SpanBlackScholes,
		attribute.String("option.type", contract.OptionType.String()),
	)
	defer func() {
		telemetry.EndEngineSpan(span, err, attribute.Float64("option.price", result.Price))
		e.log(telemetry.SpanBlackScholes, start, err, logrus.Fields{"option_type": contract.OptionType.String()})
	}()

	return pricing.BlackScholesPrice(contract)
}

func (e *Engine) PriceMonteCarlo(ctx context.Context, spec models.MonteCarloSpec) (result models.PricingResult, err error) {
	start := time.Now()
	ctx, span := telemetry.StartEngineSpan(ctx, telemetry.SpanMonteCarlo,
		attribute.String("option.type", spec.OptionType.String()),
		attribute.Int64("monte_carlo.num_paths", int64(spec.NumPaths)),
		attribute.Int64("monte_carlo.num_steps", int64(spec.NumStepsPerPath)),
	)
	defer func() {
		telemetry.EndEngineSpan(span, err, attribute.Float64("option.price", result.Price))
		if err == nil {
			e.metrics.AddMonteCarloPaths(result.NumPaths)
		}
		e.log(telemetry.SpanMonteCarlo, start, err, logrus.Fields{
			"option_type": spec.OptionType.String(),
			"num_paths":   spec.NumPaths,
			"num_steps":   spec.NumStepsPerPath,
		})
	}()

	if e.limits.MaxPaths > 0 && spec.NumPaths > e.limits.MaxPaths {
		return models.PricingResult{}, utils.NewInvalidParameterf("num_paths", "Number of paths must not exceed %d. Got %d", e.limits.MaxPaths, spec.NumPaths)
	}
	if err = e.checkSteps("num_steps_per_path", uint64(spec.NumStepsPerPath)); err != nil {
		return models.PricingResult{}, err
	}

	if e.limits.MonteCarloTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.limits.MonteCarloTimeout)
		defer cancel()
	}

	spec.Seed = e.seed(spec.Seed)
	return pricing.MonteCarloPrice(ctx, spec, pricing.MonteCarloOptions{Workers: e.limits.MonteCarloWorkers})
}

// BlackScholesSeries simulates the underlying like SimulateStock and prices
// the fixed contract at every point of the path.
func (e *Engine) BlackScholesSeries(ctx context.Context, req models.OptionSeriesRequest) (series models.OptionSeries, err error) {
	start := time.Now()
	ctx, span := telemetry.StartEngineSpan(ctx, telemetry.SpanBlackScholesSeries,
		attribute.String("asset.identifier", req.Underlying.Identifier),
		attribute.String("option.type", req.Option.OptionType.String()),
	)
	defer func() {
		telemetry.EndEngineSpan(span, err, attribute.Int("simulation.points", len(series.OptionPrices)))
		e.log(telemetry.SpanBlackScholesSeries, start, err, logrus.Fields{"symbol": req.Underlying.Identifier})
	}()

	underlying, err := e.SimulateStock(ctx, req.Underlying)
	if err != nil {
		return models.OptionSeries{}, err
	}
	prices, err := pricing.BlackScholesSeries(req.Option, underlying.Prices)
	if err != nil {
		return models.OptionSeries{}, err
	}

	maturitySeconds := math.Round(req.Option.TimeToMaturityYears * simulation.DaysPerYear * 86400)
	return models.OptionSeries{
		Underlying:   underlying,
		OptionType:   req.Option.OptionType,
		StrikePrice:  req.Option.StrikePrice,
		MaturityDate: simulation.Epoch.Add(time.Duration(maturitySeconds) * time.Second),
		OptionPrices: prices,
	}, nil
}

func (e *Engine) SimulateFutures(ctx context.Context, contract models.FuturesContract) (result models.FuturesResult, err error) {
	start := time.Now()
	_, span := telemetry.StartEngineSpan(ctx, telemetry.SpanSimulateFutures,
		attribute.String("futures.symbol", contract.Symbol),
		attribute.Int64("futures.time_to_maturity_days", int64(contract.TimeToMaturityInDays)),
	)
	defer func() {
		telemetry.EndEngineSpan(span, err, attribute.Int("simulation.points", result.Futures.Len()))
		e.log(telemetry.SpanSimulateFutures, start, err, logrus.Fields{"symbol": contract.Symbol})
	}()

	if contract.TimeStepInDays > 0 {
		step := uint64(contract.TimeStepInDays)
		steps := (uint64(contract.TimeToMaturityInDays) + step - 1) / step
		if err = e.checkSteps("time_to_maturity_days", steps); err != nil {
			return models.FuturesResult{}, err
		}
	}

	return simulation.SimulateFutures(contract, e.newSource(e.seed(contract.Seed)))
}

func (e *Engine) SimulateETF(ctx context.Context, def models.EtfDefinition) (path models.PricePath, err error) {
	start := time.Now()
	_, span := telemetry.StartEngineSpan(ctx, telemetry.SpanSimulateETF,
		attribute.String("etf.symbol", def.Symbol),
		attribute.Int("etf.constituents", len(def.Constituents)),
	)
	defer func() {
		telemetry.EndEngineSpan(span, err, attribute.Int("simulation.points", path.Len()))
		e.log(telemetry.SpanSimulateETF, start, err, logrus.Fields{
			"symbol":       def.Symbol,
			"constituents": len(def.Constituents),
		})
	}()

	if err = e.checkSteps("simulation_days", uint64(def.SimulationDays)); err != nil {
		return models.PricePath{}, err
	}
	return simulation.SimulateETF(def, e.newSource(e.seed(def.Seed)))
}

// AssetModels returns a copy of the loaded asset model table.
func (e *Engine) AssetModels() []models.AssetModelConfig {
	return e.table.Entries()
}
