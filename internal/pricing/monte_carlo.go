package pricing

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/random"
	"github.com/irfndi/quantsim-go/internal/simulation"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// ctxCheckInterval is how many paths a worker simulates between
// cancellation checks.
const ctxCheckInterval = 256

// MonteCarloOptions tunes execution without affecting the result.
type MonteCarloOptions struct {
	// Workers bounds the number of goroutines simulating paths.
	// Zero means GOMAXPROCS.
	Workers int
}

func (o MonteCarloOptions) workers(paths uint32) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if uint32(w) > paths {
		w = int(paths)
	}
	return w
}

func validateMonteCarlo(spec models.MonteCarloSpec) error {
	if err := validateTerms(spec.OptionContract); err != nil {
		return err
	}
	if !(spec.TimeToMaturityYears > 0) || spec.NumPaths == 0 || spec.NumStepsPerPath == 0 {
		return utils.NewInvalidParameter("monte_carlo", "Invalid parameters for Monte Carlo pricing. Ensure T > 0, num_paths > 0, num_steps > 0.")
	}
	return nil
}

func payoff(t models.OptionType, terminal, strike float64) float64 {
	if t == models.Put {
		return math.Max(strike-terminal, 0)
	}
	return math.Max(terminal-strike, 0)
}

// MonteCarloPrice estimates the option value as the discounted mean payoff
// over NumPaths risk-neutral GBM paths. Path i draws from its own generator
// seeded with random.DeriveSeed(root, i), so a fixed seed gives the same
// price for any worker count.
func MonteCarloPrice(ctx context.Context, spec models.MonteCarloSpec, opts MonteCarloOptions) (models.PricingResult, error) {
	if err := validateMonteCarlo(spec); err != nil {
		return models.PricingResult{}, err
	}

	root := random.RootSeed(spec.Seed)
	in := simulation.GBMInput{
		InitialPrice: spec.UnderlyingPrice,
		Drift:        spec.RiskFreeRate,
		Volatility:   spec.Volatility,
		NumSteps:     spec.NumStepsPerPath,
		Dt:           spec.TimeToMaturityYears / float64(spec.NumStepsPerPath),
	}

	paths := int(spec.NumPaths)
	payoffs := make([]float64, paths)
	workers := opts.workers(spec.NumPaths)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < paths; i += workers {
				if (i/workers)%ctxCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				terminal, err := simulation.TerminalPrice(in, random.NewSeeded(random.DeriveSeed(root, uint64(i))))
				if err != nil {
					return err
				}
				payoffs[i] = payoff(spec.OptionType, terminal, spec.StrikePrice)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.PricingResult{}, err
	}

	var sum float64
	for _, p := range payoffs {
		sum += p
	}
	discount := math.Exp(-spec.RiskFreeRate * spec.TimeToMaturityYears)
	price := discount * sum / float64(paths)

	var stdErr float64
	if paths > 1 {
		stdErr = discount * stat.StdDev(payoffs, nil) / math.Sqrt(float64(paths))
	}
	if err := utils.CheckFiniteResult("price", []float64{price, stdErr}); err != nil {
		return models.PricingResult{}, err
	}

	return models.PricingResult{
		OptionType:          spec.OptionType,
		Method:              models.MethodMonteCarlo,
		UnderlyingPrice:     spec.UnderlyingPrice,
		StrikePrice:         spec.StrikePrice,
		TimeToMaturityYears: spec.TimeToMaturityYears,
		RiskFreeRate:        spec.RiskFreeRate,
		Volatility:          spec.Volatility,
		Price:               price,
		NumPaths:            spec.NumPaths,
		NumStepsPerPath:     spec.NumStepsPerPath,
		StandardError:       stdErr,
	}, nil
}
