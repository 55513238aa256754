// Package assets holds the immutable table of per-identifier model defaults
// and resolves request parameters against it.
package assets

import (
	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// Table is loaded once at startup and never mutated afterwards, so it is
// safe to share between concurrent requests.
type Table struct {
	entries []models.AssetModelConfig
}

// NewTable copies configs into a new Table. Order is preserved; the first
// entry matching an identifier wins.
func NewTable(configs []models.AssetModelConfig) *Table {
	entries := make([]models.AssetModelConfig, len(configs))
	copy(entries, configs)
	return &Table{entries: entries}
}

// Len returns the number of configured models.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the configured models in lookup order.
func (t *Table) Entries() []models.AssetModelConfig {
	if t == nil {
		return nil
	}
	out := make([]models.AssetModelConfig, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup returns the first config whose IdentifierPattern equals identifier.
func (t *Table) Lookup(identifier string) (models.AssetModelConfig, bool) {
	if t == nil {
		return models.AssetModelConfig{}, false
	}
	for _, e := range t.entries {
		if e.IdentifierPattern == identifier {
			return e, true
		}
	}
	return models.AssetModelConfig{}, false
}

// Resolve returns the effective GBM parameters for identifier. Without a
// configured entry it succeeds only when both drift and volatility are
// overridden.
func (t *Table) Resolve(identifier string, overrides models.ParameterOverrides) (models.ModelKind, models.GBMParameters, error) {
	cfg, ok := t.Lookup(identifier)
	if !ok {
		if overrides.Drift == nil || overrides.Volatility == nil {
			return 0, models.GBMParameters{}, utils.NewConfigLookupError(identifier)
		}
		return models.GeometricBrownianMotion, models.GBMParameters{
			Drift:      *overrides.Drift,
			Volatility: *overrides.Volatility,
		}, nil
	}
	return cfg.ModelKind, MergeParameters(cfg.Parameters.GBM, overrides), nil
}

// MergeParameters replaces each default that has an override.
func MergeParameters(defaults models.GBMParameters, overrides models.ParameterOverrides) models.GBMParameters {
	merged := defaults
	if overrides.Drift != nil {
		merged.Drift = *overrides.Drift
	}
	if overrides.Volatility != nil {
		merged.Volatility = *overrides.Volatility
	}
	return merged
}
