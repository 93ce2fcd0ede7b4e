package environment

import (
	"fmt"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/randomizer"
)

const (
	lendingReject = 0
	lendingAccept = 1
)

// LendingParams configures the delayed-impact lending simulator
type LendingParams struct {
	ClusterProbabilities  [][]float64 // per group distribution over credit clusters
	SuccessProbabilities  []float64   // repayment probability per cluster
	Group0Prob            float64
	BankStartingCash      float64
	InterestRate          float64
	ClusterShiftIncrement float64
}

// LendingEnv presents one applicant per step. Accepting a loan that is
// repaid earns the interest and shifts the applicant's group toward higher
// credit clusters; a default costs the principal and shifts it down.
type LendingEnv struct {
	Params LendingParams

	Clusters  [][]float64
	Cash      float64
	Group     int
	Cluster   int
	WillRepay bool
	RNG       randomizer.RNG

	// RepaymentNoise perturbs success probabilities; nil for the standard variant
	RepaymentNoise *randomizer.GaussianNoise
}

// DefaultSuccessProbabilities spreads repayment odds evenly across clusters
func DefaultSuccessProbabilities(clusters int) []float64 {
	probs := make([]float64, clusters)
	for i := range probs {
		if clusters == 1 {
			probs[i] = 0.5
			continue
		}
		probs[i] = 0.1 + 0.8*float64(i)/float64(clusters-1)
	}
	return probs
}

// NewLendingEnv creates a lending simulator
func NewLendingEnv(params LendingParams, seed int64) (*LendingEnv, error) {
	if len(params.ClusterProbabilities) != 2 {
		return nil, fmt.Errorf("lending env needs exactly two groups, got %d", len(params.ClusterProbabilities))
	}
	clusters := len(params.ClusterProbabilities[0])
	if clusters == 0 || len(params.ClusterProbabilities[1]) != clusters {
		return nil, fmt.Errorf("lending env groups must share a non-empty cluster layout")
	}
	if params.SuccessProbabilities == nil {
		params.SuccessProbabilities = DefaultSuccessProbabilities(clusters)
	}
	if len(params.SuccessProbabilities) != clusters {
		return nil, fmt.Errorf("lending env has %d success probabilities for %d clusters", len(params.SuccessProbabilities), clusters)
	}
	if params.Group0Prob < 0 || params.Group0Prob > 1 {
		return nil, fmt.Errorf("group 0 probability (%g) must be between 0 and 1", params.Group0Prob)
	}

	env := &LendingEnv{
		Params: params,
		RNG:    *randomizer.NewRNG(seed),
	}
	env.Reset()
	return env, nil
}

func (e *LendingEnv) Kind() config.EnvKind { return config.EnvLending }

func (e *LendingEnv) Reset() []float64 {
	e.Clusters = make([][]float64, len(e.Params.ClusterProbabilities))
	for g, probs := range e.Params.ClusterProbabilities {
		e.Clusters[g] = append([]float64(nil), probs...)
	}
	e.Cash = e.Params.BankStartingCash
	e.sampleApplicant()
	return e.observation()
}

func (e *LendingEnv) Seed(seed int64) { e.RNG = *randomizer.NewRNG(seed) }

func (e *LendingEnv) sampleApplicant() {
	e.Group = 1
	if e.RNG.Float64() < e.Params.Group0Prob {
		e.Group = 0
	}
	e.Cluster = e.RNG.Categorical(e.Clusters[e.Group])

	p := e.Params.SuccessProbabilities[e.Cluster]
	if e.RepaymentNoise != nil {
		p = e.RepaymentNoise.AddRandomness(p, 1)
	}
	e.WillRepay = e.RNG.Float64() < p
}

func (e *LendingEnv) Step(action Action) (Transition, error) {
	if err := ValidateAction(e.ActionSpec(), action); err != nil {
		return Transition{}, fmt.Errorf("lending env: %w", err)
	}

	t := Transition{
		Numerators:   make([]float64, 2),
		Denominators: make([]float64, 2),
	}

	accepted := action[lendingAccept] == 1
	if e.WillRepay {
		t.Denominators[e.Group] = 1
	}
	if accepted {
		before := e.Cash
		if e.WillRepay {
			e.Cash += e.Params.InterestRate
			t.Numerators[e.Group] = 1
			e.shift(e.Group, e.Cluster, 1)
		} else {
			e.Cash -= 1
			e.shift(e.Group, e.Cluster, -1)
		}
		t.MainReward = e.Cash - before
	}

	t.Reward = t.MainReward
	t.Done = e.Cash <= 0
	e.sampleApplicant()
	t.Observation = e.observation()
	return t, nil
}

// shift moves probability mass of group g from cluster c toward c+dir
func (e *LendingEnv) shift(g, c, dir int) {
	to := c + dir
	if to < 0 || to >= len(e.Clusters[g]) {
		return
	}
	amount := e.Params.ClusterShiftIncrement
	if amount > e.Clusters[g][c] {
		amount = e.Clusters[g][c]
	}
	e.Clusters[g][c] -= amount
	e.Clusters[g][to] += amount
}

// observation is one-hot group followed by one-hot credit cluster
func (e *LendingEnv) observation() []float64 {
	obs := make([]float64, e.ObservationSize())
	obs[e.Group] = 1
	obs[2+e.Cluster] = 1
	return obs
}

func (e *LendingEnv) ObservationSize() int { return 2 + len(e.Params.ClusterProbabilities[0]) }

func (e *LendingEnv) ActionSpec() ActionSpec { return ActionSpec{Choices: 2, Units: 1} }

func (e *LendingEnv) NumGroups() int { return 2 }
