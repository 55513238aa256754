package models

import (
	"fmt"
	"strings"
)

// ModelKind names the stochastic process used for an asset.
type ModelKind int

const (
	GeometricBrownianMotion ModelKind = iota
)

// ParseModelKind maps configuration strings onto a ModelKind.
func ParseModelKind(s string) (ModelKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geometricbrownianmotion", "geometric_brownian_motion", "gbm":
		return GeometricBrownianMotion, nil
	default:
		return 0, fmt.Errorf("unknown model kind %q", s)
	}
}

func (k ModelKind) String() string {
	switch k {
	case GeometricBrownianMotion:
		return "GeometricBrownianMotion"
	default:
		return fmt.Sprintf("ModelKind(%d)", int(k))
	}
}

// GBMParameters are the annualized drift and volatility of a GBM process.
type GBMParameters struct {
	Drift      float64 `json:"drift"`
	Volatility float64 `json:"volatility"`
}

// ModelParameters carries the parameters for the model kind in use.
type ModelParameters struct {
	GBM GBMParameters `json:"gbm"`
}

// AssetModelConfig binds an identifier to default model parameters.
type AssetModelConfig struct {
	AssetType         string          `json:"asset_type"`
	IdentifierPattern string          `json:"identifier_pattern"`
	ModelKind         ModelKind       `json:"-"`
	Parameters        ModelParameters `json:"parameters"`
}

// ParameterOverrides are optional per-request replacements for defaults.
type ParameterOverrides struct {
	Drift      *float64
	Volatility *float64
}
