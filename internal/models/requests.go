package models

// PathSimulationRequest asks for a single GBM price path of a named asset.
type PathSimulationRequest struct {
	Identifier         string
	InitialPrice       float64
	NumSteps           uint32
	TimeStepInDays     float64
	Seed               *uint64
	DriftOverride      *float64
	VolatilityOverride *float64
}

// Overrides returns the request's parameter overrides.
func (r PathSimulationRequest) Overrides() ParameterOverrides {
	return ParameterOverrides{Drift: r.DriftOverride, Volatility: r.VolatilityOverride}
}

// FuturesContract describes a futures contract on a GBM underlying.
// Drift defaults to RiskFreeRate when nil.
type FuturesContract struct {
	Symbol               string
	InitialSpotPrice     float64
	RiskFreeRate         float64
	Volatility           float64
	TimeToMaturityInDays uint32
	TimeStepInDays       uint32
	Seed                 *uint64
	Drift                *float64
}

// EtfConstituent is one weighted holding of an ETF.
type EtfConstituent struct {
	Symbol       string
	InitialPrice float64
	Drift        float64
	Volatility   float64
	Weight       float64
}

// EtfDefinition is an ordered basket of constituents simulated together.
type EtfDefinition struct {
	Symbol         string
	Constituents   []EtfConstituent
	SimulationDays uint32
	TimeStepInDays uint32
	Seed           *uint64
}

// OptionSeriesRequest prices a fixed contract along a simulated path of
// its underlying.
type OptionSeriesRequest struct {
	Underlying PathSimulationRequest
	Option     FixedOptionParams
}
