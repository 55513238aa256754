package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OptionType is the payoff direction of a European option.
type OptionType int

const (
	Call OptionType = iota
	Put
)

var titleCaser = cases.Title(language.English)

// ParseOptionType accepts "call" or "put" in any letter case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option type %q (expected Call or Put)", s)
	}
}

// String returns the canonical title-cased name.
func (o OptionType) String() string {
	switch o {
	case Call:
		return titleCaser.String("call")
	case Put:
		return titleCaser.String("put")
	default:
		return fmt.Sprintf("OptionType(%d)", int(o))
	}
}

// OptionContract describes a European option priced in closed form.
type OptionContract struct {
	UnderlyingPrice     float64
	StrikePrice         float64
	TimeToMaturityYears float64
	RiskFreeRate        float64
	Volatility          float64
	OptionType          OptionType
}

// MonteCarloSpec is an OptionContract plus sampling controls.
type MonteCarloSpec struct {
	OptionContract
	NumPaths        uint32
	NumStepsPerPath uint32
	Seed            *uint64
}

// FixedOptionParams holds the contract terms held constant while the
// underlying moves along a simulated path.
type FixedOptionParams struct {
	StrikePrice         float64
	TimeToMaturityYears float64
	RiskFreeRate        float64
	Volatility          float64
	OptionType          OptionType
}
