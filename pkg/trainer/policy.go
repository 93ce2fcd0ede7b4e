package trainer

import (
	"math"

	"github.com/brianbland/fairrl/pkg/environment"
	"github.com/brianbland/fairrl/pkg/randomizer"
)

// Policy is a stochastic actor with a state-value critic
type Policy interface {
	// Sample draws an action and returns its log-probability
	Sample(obs []float64, rng *randomizer.RNG) (environment.Action, float64)

	// LogProb returns the log-probability of action under the current weights
	LogProb(obs []float64, action environment.Action) float64

	// Ascend moves the actor weights by scale times the gradient of LogProb
	Ascend(obs []float64, action environment.Action, scale float64)

	// Value estimates the discounted return from obs
	Value(obs []float64) float64

	// FitValue moves the critic toward target
	FitValue(obs []float64, target, lr float64)
}

// PolicyClass constructs a policy for an observation size and action space
type PolicyClass func(obsSize int, spec environment.ActionSpec, seed int64) Policy

// maxValueError bounds a single critic update
const maxValueError = 10.0

// LinearSoftmax scores every choice linearly in the observation and
// allocates each unit independently from the softmax of the scores.
type LinearSoftmax struct {
	ObsSize      int         `json:"obs_size"`
	Choices      int         `json:"choices"`
	Units        int         `json:"units"`
	Weights      [][]float64 `json:"weights"`       // choices x (obs_size + bias)
	ValueWeights []float64   `json:"value_weights"` // obs_size + bias
}

// NewLinearSoftmaxPolicy creates a policy with small random actor weights
func NewLinearSoftmaxPolicy(obsSize int, spec environment.ActionSpec, seed int64) Policy {
	rng := randomizer.NewRNG(seed)
	weights := make([][]float64, spec.Choices)
	for c := range weights {
		weights[c] = make([]float64, obsSize+1)
		for j := range weights[c] {
			weights[c][j] = 0.01 * rng.NormFloat64()
		}
	}
	return &LinearSoftmax{
		ObsSize:      obsSize,
		Choices:      spec.Choices,
		Units:        spec.Units,
		Weights:      weights,
		ValueWeights: make([]float64, obsSize+1),
	}
}

// Probs returns the per-unit choice distribution at obs
func (p *LinearSoftmax) Probs(obs []float64) []float64 {
	logits := make([]float64, p.Choices)
	hi := math.Inf(-1)
	for c, w := range p.Weights {
		logits[c] = dot(w, obs)
		hi = math.Max(hi, logits[c])
	}
	sum := 0.0
	for c := range logits {
		logits[c] = math.Exp(logits[c] - hi)
		sum += logits[c]
	}
	for c := range logits {
		logits[c] /= sum
	}
	return logits
}

func (p *LinearSoftmax) Sample(obs []float64, rng *randomizer.RNG) (environment.Action, float64) {
	probs := p.Probs(obs)
	action := make(environment.Action, p.Choices)
	for u := 0; u < p.Units; u++ {
		action[rng.Categorical(probs)]++
	}
	return action, logProb(probs, action)
}

func (p *LinearSoftmax) LogProb(obs []float64, action environment.Action) float64 {
	return logProb(p.Probs(obs), action)
}

func (p *LinearSoftmax) Ascend(obs []float64, action environment.Action, scale float64) {
	probs := p.Probs(obs)
	for c, w := range p.Weights {
		g := scale * (float64(action[c]) - float64(p.Units)*probs[c])
		for j := range obs {
			w[j] += g * obs[j]
		}
		w[len(obs)] += g
	}
}

func (p *LinearSoftmax) Value(obs []float64) float64 {
	return dot(p.ValueWeights, obs)
}

func (p *LinearSoftmax) FitValue(obs []float64, target, lr float64) {
	e := lr * environment.ClampFloat64(target-p.Value(obs), -maxValueError, maxValueError)
	for j := range obs {
		p.ValueWeights[j] += e * obs[j]
	}
	p.ValueWeights[len(obs)] += e
}

// logProb of a unit allocation, up to the multinomial coefficient which
// does not depend on the weights
func logProb(probs []float64, action environment.Action) float64 {
	lp := 0.0
	for c, n := range action {
		if n > 0 {
			lp += float64(n) * math.Log(math.Max(probs[c], 1e-300))
		}
	}
	return lp
}

// dot treats the last weight as the bias
func dot(w, obs []float64) float64 {
	s := w[len(obs)]
	for j, x := range obs {
		s += w[j] * x
	}
	return s
}
