// Package environment provides the allocation simulators, their
// reward-shaping wrappers and the vectorized interface the trainer consumes.
package environment

import (
	"fmt"

	"github.com/brianbland/fairrl/pkg/config"
)

// Action assigns a number of units to each choice. Its length equals
// ActionSpec.Choices and its sum equals ActionSpec.Units.
type Action []int

// ActionSpec describes the action space: Units independent draws over Choices
type ActionSpec struct {
	Choices int
	Units   int
}

// Transition is the outcome of one environment step
type Transition struct {
	Observation []float64
	Reward      float64 // reward seen by the learner (shaped once wrapped)
	MainReward  float64 // unshaped environment reward
	Penalty     float64 // auxiliary penalty term, weighted by the shaping coefficients
	Done        bool

	// Per-group increments of the long-term benefit rate numerator and
	// denominator
	Numerators   []float64
	Denominators []float64

	// Bias is the benefit rate gap of the episode so far (set by FairWrapper)
	Bias float64
}

// Env is the reset/step contract every simulator and wrapper satisfies
type Env interface {
	// Kind returns the simulator family
	Kind() config.EnvKind

	// Reset starts a new episode and returns the first observation
	Reset() []float64

	// Seed restarts the environment's random stream
	Seed(seed int64)

	// Step applies an action
	Step(action Action) (Transition, error)

	// ObservationSize returns the fixed observation length
	ObservationSize() int

	// ActionSpec returns the fixed action space
	ActionSpec() ActionSpec

	// NumGroups returns the number of groups the bias is measured over
	NumGroups() int
}

// ValidateAction checks that action fits spec
func ValidateAction(spec ActionSpec, action Action) error {
	if len(action) != spec.Choices {
		return fmt.Errorf("action has %d choices, expected %d", len(action), spec.Choices)
	}
	total := 0
	for i, a := range action {
		if a < 0 {
			return fmt.Errorf("action choice %d is negative (%d)", i, a)
		}
		total += a
	}
	if total != spec.Units {
		return fmt.Errorf("action allocates %d units, expected %d", total, spec.Units)
	}
	return nil
}

// Rates returns the per-group benefit rates numerator/denominator. Groups
// without any denominator mass have rate 0.
func Rates(numerators, denominators []float64) []float64 {
	rates := make([]float64, len(numerators))
	for i := range numerators {
		if i < len(denominators) && denominators[i] > 0 {
			rates[i] = numerators[i] / denominators[i]
		}
	}
	return rates
}

// Bias returns the gap between the highest and lowest rate
func Bias(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	lo, hi := rates[0], rates[0]
	for _, r := range rates[1:] {
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	return hi - lo
}

// ClampFloat64 ensures value is within the specified bounds
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
