// Package simulation generates price paths for stocks, futures and ETFs
// under geometric Brownian motion.
package simulation

import (
	"math"
	"time"

	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/random"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// DaysPerYear converts day counts into year fractions everywhere in the
// engine, including futures maturity.
const DaysPerYear = 365.0

const (
	secondsPerDay = 86400.0
	millisPerDay  = 86400000
)

// Epoch is the timestamp of index 0 on every simulated path.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// MaxHorizonDays is the longest span a path may cover: its last timestamp
// must still render as a four-digit year.
var MaxHorizonDays = float64(time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()-Epoch.Unix()) / secondsPerDay

// GBMInput holds the parameters of a single GBM run. Dt is in years.
type GBMInput struct {
	InitialPrice float64
	Drift        float64
	Volatility   float64
	NumSteps     uint32
	Dt           float64
}

func (in GBMInput) validate() error {
	for _, p := range []struct {
		field string
		value float64
	}{
		{"initial_price", in.InitialPrice},
		{"drift", in.Drift},
		{"volatility", in.Volatility},
		{"dt", in.Dt},
	} {
		if err := utils.RequireFinite(p.field, p.value); err != nil {
			return err
		}
	}
	if !(in.InitialPrice > 0) {
		return utils.NewInvalidParameterf("initial_price", "Initial price (S0) must be positive. Got %v", in.InitialPrice)
	}
	if !(in.Volatility > 0) {
		return utils.NewInvalidParameterf("volatility", "Volatility (sigma) must be positive. Got %v", in.Volatility)
	}
	if !(in.Dt > 0) {
		return utils.NewInvalidParameterf("dt", "Time step (dt) must be positive. Got %v", in.Dt)
	}
	if in.NumSteps == 0 {
		return utils.NewInvalidParameter("num_steps", "Number of steps must be positive. Got 0")
	}
	return nil
}

// stepper applies S_{t+1} = S_t * exp((mu - sigma^2/2)dt + sigma*sqrt(dt)*Z).
type stepper struct {
	drift     float64
	diffusion float64
}

func newStepper(in GBMInput) stepper {
	return stepper{
		drift:     (in.Drift - 0.5*in.Volatility*in.Volatility) * in.Dt,
		diffusion: in.Volatility * math.Sqrt(in.Dt),
	}
}

func (s stepper) next(price float64, src random.Source) float64 {
	return price * math.Exp(s.drift+s.diffusion*src.NextStandardNormal())
}

// checkHorizon rejects paths whose timestamps would run past MaxHorizonDays.
func checkHorizon(field string, numSteps uint32, stepDays float64) error {
	if span := float64(numSteps) * stepDays; !(span <= MaxHorizonDays) {
		return utils.NewInvalidParameterf(field, "Simulation horizon of %v days from %s exceeds the supported maximum of %.0f days", span, field, MaxHorizonDays)
	}
	return nil
}

// SimulateGBM returns NumSteps+1 prices starting at InitialPrice with
// timestamps Dt apart from Epoch. Validation happens before any draw, and a
// path that overflows to Inf or NaN is returned as an error.
func SimulateGBM(in GBMInput, src random.Source) (models.PricePath, error) {
	if err := in.validate(); err != nil {
		return models.PricePath{}, err
	}
	if err := checkHorizon("dt", in.NumSteps, in.Dt*DaysPerYear); err != nil {
		return models.PricePath{}, err
	}

	n := int(in.NumSteps)
	st := newStepper(in)
	prices := make([]float64, n+1)
	prices[0] = in.InitialPrice
	for i := 1; i <= n; i++ {
		prices[i] = st.next(prices[i-1], src)
	}
	if err := utils.CheckFiniteResult("prices", prices); err != nil {
		return models.PricePath{}, err
	}

	return models.PricePath{
		Timestamps: Timestamps(n+1, in.Dt),
		Prices:     prices,
	}, nil
}

// TerminalPrice runs the same recurrence as SimulateGBM but keeps only the
// final price.
func TerminalPrice(in GBMInput, src random.Source) (float64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	st := newStepper(in)
	price := in.InitialPrice
	for i := uint32(0); i < in.NumSteps; i++ {
		price = st.next(price, src)
	}
	return price, nil
}

// Timestamps returns count instants spaced dtYears apart, starting at Epoch.
// Each offset i*dt is rounded to the millisecond on its own, so rounding
// never accumulates along the path. Callers bound the span by MaxHorizonDays.
func Timestamps(count int, dtYears float64) []time.Time {
	out := make([]time.Time, count)
	for i := range out {
		out[i] = TimeAt(float64(i) * dtYears)
	}
	return out
}

// TimeAt returns Epoch plus years, rounded to the millisecond. Whole days
// and the remainder are converted separately to keep millisecond accuracy
// across the full horizon.
func TimeAt(years float64) time.Time {
	days := years * DaysPerYear
	whole := math.Floor(days)
	millis := int64(whole)*millisPerDay + int64(math.Round((days-whole)*millisPerDay))
	return time.UnixMilli(Epoch.UnixMilli() + millis).UTC()
}
