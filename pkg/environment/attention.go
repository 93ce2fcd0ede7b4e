package environment

import (
	"fmt"
	"math"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/randomizer"
)

// AttentionParams configures the attention allocation simulator
type AttentionParams struct {
	NLocations      int
	IncidentRates   []float64
	NAttentionUnits int
	DynamicRate     float64

	// MaxRate caps a location's incident rate after drift and noise
	MaxRate float64
}

// AttentionEnv allocates attention units across locations. Each step every
// location draws Poisson incidents at its current rate; allocated units
// discover up to one incident each. Attended locations cool down by
// DynamicRate per unit, unattended ones heat up by DynamicRate.
type AttentionEnv struct {
	Params AttentionParams

	Rates []float64
	Seen  []float64
	RNG   randomizer.RNG

	// Noise perturbs the effective incident rate; nil for the standard variant
	Noise *randomizer.CompoundRandomizer
}

// NewAttentionEnv creates an attention allocation simulator
func NewAttentionEnv(params AttentionParams, seed int64) (*AttentionEnv, error) {
	if params.NLocations <= 0 {
		return nil, fmt.Errorf("attention env needs at least one location")
	}
	if len(params.IncidentRates) != params.NLocations {
		return nil, fmt.Errorf("attention env has %d incident rates for %d locations", len(params.IncidentRates), params.NLocations)
	}
	if params.NAttentionUnits <= 0 {
		return nil, fmt.Errorf("attention env needs at least one attention unit")
	}
	if params.MaxRate <= 0 {
		params.MaxRate = 4 * maxOf(params.IncidentRates)
		if params.MaxRate == 0 {
			params.MaxRate = 1
		}
	}
	params.IncidentRates = append([]float64(nil), params.IncidentRates...)

	env := &AttentionEnv{
		Params: params,
		RNG:    *randomizer.NewRNG(seed),
	}
	env.Reset()
	return env, nil
}

func (e *AttentionEnv) Kind() config.EnvKind { return config.EnvAttention }

func (e *AttentionEnv) Reset() []float64 {
	e.Rates = append([]float64(nil), e.Params.IncidentRates...)
	e.Seen = make([]float64, e.Params.NLocations)
	return e.observation()
}

func (e *AttentionEnv) Seed(seed int64) { e.RNG = *randomizer.NewRNG(seed) }

func (e *AttentionEnv) Step(action Action) (Transition, error) {
	if err := ValidateAction(e.ActionSpec(), action); err != nil {
		return Transition{}, fmt.Errorf("attention env: %w", err)
	}

	n := e.Params.NLocations
	t := Transition{
		Numerators:   make([]float64, n),
		Denominators: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		rate := e.Rates[i]
		if e.Noise != nil {
			rate = e.Noise.AddRandomness(rate, e.Params.MaxRate)
		}
		occurred := float64(e.RNG.Poisson(rate))
		discovered := math.Min(occurred, float64(action[i]))

		e.Seen[i] = discovered
		t.Numerators[i] = discovered
		t.Denominators[i] = occurred
		t.MainReward += discovered
		t.Penalty += occurred - discovered

		if action[i] > 0 {
			e.Rates[i] = math.Max(0, e.Rates[i]-e.Params.DynamicRate*float64(action[i]))
		} else {
			e.Rates[i] = math.Min(e.Params.MaxRate, e.Rates[i]+e.Params.DynamicRate)
		}
	}

	t.Reward = t.MainReward
	t.Observation = e.observation()
	return t, nil
}

func (e *AttentionEnv) observation() []float64 {
	return append([]float64(nil), e.Seen...)
}

func (e *AttentionEnv) ObservationSize() int { return e.Params.NLocations }

func (e *AttentionEnv) ActionSpec() ActionSpec {
	return ActionSpec{Choices: e.Params.NLocations, Units: e.Params.NAttentionUnits}
}

func (e *AttentionEnv) NumGroups() int { return e.Params.NLocations }

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
