package pricing

import (
	"context"
	"testing"

	"github.com/irfndi/quantsim-go/internal/models"
)

func BenchmarkBlackScholesPrice(b *testing.B) {
	c := models.OptionContract{
		UnderlyingPrice:     100,
		StrikePrice:         105,
		TimeToMaturityYears: 0.5,
		RiskFreeRate:        0.02,
		Volatility:          0.22,
		OptionType:          models.Call,
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := BlackScholesPrice(c); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMonteCarloPrice(b *testing.B) {
	seed := uint64(456)
	spec := models.MonteCarloSpec{
		OptionContract: models.OptionContract{
			UnderlyingPrice:     100,
			StrikePrice:         102,
			TimeToMaturityYears: 0.75,
			RiskFreeRate:        0.025,
			Volatility:          0.2,
			OptionType:          models.Put,
		},
		NumPaths:        2000,
		NumStepsPerPath: 50,
		Seed:            &seed,
	}

	for _, bc := range []struct {
		name    string
		workers int
	}{
		{"serial", 1},
		{"parallel", 4},
	} {
		b.Run(bc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := MonteCarloPrice(context.Background(), spec, MonteCarloOptions{Workers: bc.workers}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
