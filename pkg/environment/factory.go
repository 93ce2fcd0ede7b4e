package environment

import (
	"fmt"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/variant"
)

// Factory creates base environments from reconciled parameters
type Factory struct{}

// NewFactory creates a new environment factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds the base environment described by base. The harder flag
// selects the pre-built variant; its sizing still comes from base.
func (f *Factory) Create(base variant.EnvBaseParams, seed int64) (Env, error) {
	switch base.Kind {
	case config.EnvAttention:
		if base.Attention == nil {
			return nil, fmt.Errorf("attention environment parameters are missing")
		}
		params := AttentionParams{
			NLocations:      base.Attention.NLocations,
			IncidentRates:   base.Attention.IncidentRates,
			NAttentionUnits: base.Attention.NAttentionUnits,
			DynamicRate:     base.Attention.DynamicRate,
		}
		if base.Harder {
			return NewHarderAttentionEnv(params, seed)
		}
		return NewAttentionEnv(params, seed)

	case config.EnvLending:
		if base.Lending == nil {
			return nil, fmt.Errorf("lending environment parameters are missing")
		}
		params := LendingParams{
			ClusterProbabilities:  base.Lending.ClusterProbabilities,
			Group0Prob:            base.Lending.Group0Prob,
			BankStartingCash:      base.Lending.BankStartingCash,
			InterestRate:          base.Lending.InterestRate,
			ClusterShiftIncrement: base.Lending.ClusterShiftIncrement,
		}
		if base.Harder {
			return NewHarderLendingEnv(params, seed)
		}
		return NewLendingEnv(params, seed)

	default:
		return nil, fmt.Errorf("unknown environment kind: %s", base.Kind)
	}
}

// CreateWrapped builds the base environment, wraps it for shaping and
// episode statistics, and returns its vectorized form
func (f *Factory) CreateWrapped(base variant.EnvBaseParams, shaping variant.ShapingParams, seed int64) (*VecEnv, error) {
	env, err := f.Create(base, seed)
	if err != nil {
		return nil, err
	}
	wrapped, err := NewFairWrapper(env, shaping)
	if err != nil {
		return nil, err
	}
	return NewVecEnv(NewMonitor(wrapped)), nil
}
