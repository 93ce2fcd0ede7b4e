package environment

import (
	"github.com/brianbland/fairrl/pkg/randomizer"
)

// Preset describes a pre-built environment variant
type Preset struct {
	Name        string
	Description string
	Harder      bool
}

// Presets lists the environment variants every kind supports
func Presets() []Preset {
	return []Preset{
		{
			Name:        "standard",
			Description: "Base simulator parameterized by the run options",
			Harder:      false,
		},
		{
			Name:        "harder",
			Description: "Same sizing with shifted, noisier dynamics (attention: faster drift and incident bursts; lending: lower starting clusters and noisy repayment)",
			Harder:      true,
		},
	}
}

const (
	harderDynamicRateScale = 2.0
	harderBurstProbability = 0.05
	harderBurstMinSteps    = 5
	harderBurstMaxSteps    = 20
	harderBurstIntensity   = 2.5
	harderRateNoise        = 0.1

	harderClusterShift = 1
	harderRepayNoise   = 0.05
)

// NewHarderAttentionEnv builds the harder attention variant. It keeps the
// location and unit counts of params so the action and observation shapes
// match the standard variant.
func NewHarderAttentionEnv(params AttentionParams, seed int64) (*AttentionEnv, error) {
	params.DynamicRate = ClampFloat64(params.DynamicRate*harderDynamicRateScale, 0, 1)
	env, err := NewAttentionEnv(params, seed)
	if err != nil {
		return nil, err
	}
	env.Noise = randomizer.NewCompoundRandomizer(
		randomizer.NewBurstRandomizer(seed+1, harderBurstProbability, harderBurstMinSteps, harderBurstMaxSteps, harderBurstIntensity),
		randomizer.NewGaussianNoise(seed+2, harderRateNoise),
	)
	return env, nil
}

// NewHarderLendingEnv builds the modified lending variant: the disadvantaged
// group starts one credit cluster lower and repayment odds are noisy.
func NewHarderLendingEnv(params LendingParams, seed int64) (*LendingEnv, error) {
	shifted := make([][]float64, len(params.ClusterProbabilities))
	for g, probs := range params.ClusterProbabilities {
		shifted[g] = append([]float64(nil), probs...)
	}
	if len(shifted) == 2 {
		shifted[1] = shiftDown(shifted[1], harderClusterShift)
	}
	params.ClusterProbabilities = shifted

	env, err := NewLendingEnv(params, seed)
	if err != nil {
		return nil, err
	}
	env.RepaymentNoise = randomizer.NewGaussianNoise(seed+1, harderRepayNoise)
	return env, nil
}

// shiftDown moves every cluster's mass n clusters lower, piling the
// overflow onto the lowest cluster
func shiftDown(probs []float64, n int) []float64 {
	out := make([]float64, len(probs))
	for i, p := range probs {
		to := i - n
		if to < 0 {
			to = 0
		}
		out[to] += p
	}
	return out
}
