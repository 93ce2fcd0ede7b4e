package environment

import (
	"fmt"
	"math"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/variant"
)

// FairWrapper shapes the reward of a base environment with the zeta
// coefficients, tracks the long-term benefit rates of the episode, and
// truncates episodes at Shaping.EpTimesteps.
//
// The shaped reward is
//
//	zeta_0*main - sum_{i>=1} zeta_i*term_i
//
// where the regularization term is the absolute change of the episode bias
// and every other term is the environment penalty.
type FairWrapper struct {
	Env     Env
	Shaping variant.ShapingParams

	Numerators   []float64
	Denominators []float64
	LastBias     float64
	Steps        int
}

// NewFairWrapper wraps env with the given shaping parameters
func NewFairWrapper(env Env, shaping variant.ShapingParams) (*FairWrapper, error) {
	if len(shaping.Zeta) == 0 {
		return nil, fmt.Errorf("shaping needs at least the main reward coefficient")
	}
	if shaping.EpTimesteps <= 0 {
		return nil, fmt.Errorf("episode length (%d) must be positive", shaping.EpTimesteps)
	}
	return &FairWrapper{
		Env:          env,
		Shaping:      shaping,
		Numerators:   make([]float64, env.NumGroups()),
		Denominators: make([]float64, env.NumGroups()),
	}, nil
}

func (w *FairWrapper) Kind() config.EnvKind { return w.Env.Kind() }

func (w *FairWrapper) Reset() []float64 {
	for i := range w.Numerators {
		w.Numerators[i] = 0
		w.Denominators[i] = 0
	}
	w.LastBias = 0
	w.Steps = 0
	return w.observe(w.Env.Reset())
}

func (w *FairWrapper) Seed(seed int64) { w.Env.Seed(seed) }

func (w *FairWrapper) Step(action Action) (Transition, error) {
	t, err := w.Env.Step(action)
	if err != nil {
		return Transition{}, err
	}
	w.Steps++

	for g := range w.Numerators {
		w.Numerators[g] += t.Numerators[g]
		w.Denominators[g] += t.Denominators[g]
	}
	bias := Bias(w.Rates())
	delta := math.Abs(bias - w.LastBias)
	w.LastBias = bias

	zeta := w.Shaping.Zeta
	reward := zeta[0] * t.MainReward
	for i := 1; i < len(zeta); i++ {
		if i == w.Shaping.RegularizationIndex {
			reward -= zeta[i] * delta
		} else {
			reward -= zeta[i] * t.Penalty
		}
	}

	t.Reward = reward
	t.Bias = bias
	t.Done = t.Done || w.Steps >= w.Shaping.EpTimesteps
	t.Observation = w.observe(t.Observation)
	return t, nil
}

// Rates returns the benefit rate of every group over the current episode
func (w *FairWrapper) Rates() []float64 {
	return Rates(w.Numerators, w.Denominators)
}

// observe appends, when enabled, each group's gap to the best-off group
func (w *FairWrapper) observe(obs []float64) []float64 {
	if !w.Shaping.IncludeDelta {
		return obs
	}
	rates := w.Rates()
	hi := 0.0
	for _, r := range rates {
		hi = math.Max(hi, r)
	}
	out := make([]float64, 0, len(obs)+len(rates))
	out = append(out, obs...)
	for _, r := range rates {
		out = append(out, hi-r)
	}
	return out
}

func (w *FairWrapper) ObservationSize() int {
	if w.Shaping.IncludeDelta {
		return w.Env.ObservationSize() + w.Env.NumGroups()
	}
	return w.Env.ObservationSize()
}

func (w *FairWrapper) ActionSpec() ActionSpec { return w.Env.ActionSpec() }

func (w *FairWrapper) NumGroups() int { return w.Env.NumGroups() }
