package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/variant"
)

// stubEnv returns the same transition every step
type stubEnv struct {
	resets int
	steps  int
	next   Transition
}

func (s *stubEnv) Kind() config.EnvKind { return config.EnvAttention }
func (s *stubEnv) Reset() []float64 {
	s.resets++
	return []float64{0, 0}
}
func (s *stubEnv) Seed(int64) {}
func (s *stubEnv) Step(action Action) (Transition, error) {
	s.steps++
	t := s.next
	t.Observation = []float64{float64(s.steps), 0}
	t.Numerators = append([]float64(nil), s.next.Numerators...)
	t.Denominators = append([]float64(nil), s.next.Denominators...)
	return t, nil
}
func (s *stubEnv) ObservationSize() int   { return 2 }
func (s *stubEnv) ActionSpec() ActionSpec { return ActionSpec{Choices: 2, Units: 1} }
func (s *stubEnv) NumGroups() int         { return 2 }

func testAttentionParams() AttentionParams {
	return AttentionParams{
		NLocations:      2,
		IncidentRates:   []float64{1, 1},
		NAttentionUnits: 1,
		DynamicRate:     0.1,
	}
}

func TestValidateAction(t *testing.T) {
	spec := ActionSpec{Choices: 3, Units: 2}

	assert.NoError(t, ValidateAction(spec, Action{1, 0, 1}))
	assert.Error(t, ValidateAction(spec, Action{1, 1}), "wrong length")
	assert.Error(t, ValidateAction(spec, Action{3, -1, 0}), "negative units")
	assert.Error(t, ValidateAction(spec, Action{1, 0, 0}), "wrong total")
}

func TestRatesAndBias(t *testing.T) {
	rates := Rates([]float64{1, 3, 5}, []float64{2, 4, 0})
	assert.Equal(t, []float64{0.5, 0.75, 0}, rates)
	assert.InDelta(t, 0.75, Bias(rates), 1e-12)
	assert.Zero(t, Bias(nil))
}

func TestAttentionEnv_Step(t *testing.T) {
	env, err := NewAttentionEnv(testAttentionParams(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, env.ObservationSize())
	assert.Equal(t, ActionSpec{Choices: 2, Units: 1}, env.ActionSpec())

	for i := 0; i < 50; i++ {
		tr, err := env.Step(Action{1, 0})
		require.NoError(t, err)

		total := 0.0
		for g := range tr.Denominators {
			assert.LessOrEqual(t, tr.Numerators[g], tr.Denominators[g])
			total += tr.Denominators[g]
		}
		assert.InDelta(t, total, tr.MainReward+tr.Penalty, 1e-12)
		assert.LessOrEqual(t, tr.Numerators[0], 1.0, "one unit discovers at most one incident")
		assert.Zero(t, tr.Numerators[1], "unattended location discovers nothing")
		assert.False(t, tr.Done)
	}
}

func TestAttentionEnv_RateDrift(t *testing.T) {
	env, err := NewAttentionEnv(testAttentionParams(), 1)
	require.NoError(t, err)

	_, err = env.Step(Action{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, env.Rates[0], 1e-12)
	assert.InDelta(t, 1.1, env.Rates[1], 1e-12)

	env.Reset()
	assert.Equal(t, []float64{1, 1}, env.Rates)
}

func TestAttentionEnv_InvalidParams(t *testing.T) {
	params := testAttentionParams()
	params.IncidentRates = []float64{1}
	_, err := NewAttentionEnv(params, 1)
	assert.Error(t, err)

	params = testAttentionParams()
	params.NAttentionUnits = 0
	_, err = NewAttentionEnv(params, 1)
	assert.Error(t, err)

	env, err := NewAttentionEnv(testAttentionParams(), 1)
	require.NoError(t, err)
	_, err = env.Step(Action{1, 1})
	assert.Error(t, err)
}

func testLendingEnv(t *testing.T) *LendingEnv {
	base := variant.DefaultLendingBase()
	env, err := NewLendingEnv(LendingParams{
		ClusterProbabilities:  base.ClusterProbabilities,
		Group0Prob:            base.Group0Prob,
		BankStartingCash:      base.BankStartingCash,
		InterestRate:          base.InterestRate,
		ClusterShiftIncrement: base.ClusterShiftIncrement,
	}, 3)
	require.NoError(t, err)
	return env
}

func TestLendingEnv_AcceptRepaid(t *testing.T) {
	env := testLendingEnv(t)
	assert.Equal(t, 9, env.ObservationSize())

	env.Group, env.Cluster, env.WillRepay = 0, 3, true
	tr, err := env.Step(Action{0, 1})
	require.NoError(t, err)

	assert.Equal(t, 1.0, tr.MainReward)
	assert.Equal(t, []float64{1, 0}, tr.Numerators)
	assert.Equal(t, []float64{1, 0}, tr.Denominators)
	assert.InDelta(t, 0.19, env.Clusters[0][3], 1e-12)
	assert.InDelta(t, 0.31, env.Clusters[0][4], 1e-12)
	assert.Equal(t, 10001.0, env.Cash)
}

func TestLendingEnv_RejectAndDefault(t *testing.T) {
	env := testLendingEnv(t)

	env.Group, env.Cluster, env.WillRepay = 1, 2, true
	tr, err := env.Step(Action{1, 0})
	require.NoError(t, err)
	assert.Zero(t, tr.MainReward)
	assert.Equal(t, []float64{0, 0}, tr.Numerators)
	assert.Equal(t, []float64{0, 1}, tr.Denominators, "a rejected would-repay applicant still counts")

	env.Cash = 1
	env.Group, env.Cluster, env.WillRepay = 1, 2, false
	tr, err = env.Step(Action{0, 1})
	require.NoError(t, err)
	assert.Equal(t, -1.0, tr.MainReward)
	assert.True(t, tr.Done, "bankrupt bank ends the episode")
	assert.InDelta(t, 0.11, env.Clusters[1][1], 1e-12)
	assert.InDelta(t, 0.19, env.Clusters[1][2], 1e-12)
}

func TestLendingEnv_Observation(t *testing.T) {
	env := testLendingEnv(t)
	obs := env.Reset()
	require.Len(t, obs, 9)

	sum := 0.0
	for _, v := range obs {
		sum += v
	}
	assert.Equal(t, 2.0, sum)
	assert.Equal(t, 1.0, obs[env.Group])
	assert.Equal(t, 1.0, obs[2+env.Cluster])
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory()

	attention := variant.EnvBaseParams{
		Kind: config.EnvAttention,
		Attention: &variant.AttentionBase{
			NLocations:      3,
			IncidentRates:   []float64{1, 2, 3},
			DynamicRate:     0.1,
			NAttentionUnits: 4,
		},
	}
	std, err := f.Create(attention, 1)
	require.NoError(t, err)

	attention.Harder = true
	harder, err := f.Create(attention, 1)
	require.NoError(t, err)

	assert.Equal(t, std.ObservationSize(), harder.ObservationSize())
	assert.Equal(t, std.ActionSpec(), harder.ActionSpec())
	assert.NotNil(t, harder.(*AttentionEnv).Noise)

	lendingBase := variant.DefaultLendingBase()
	lending := variant.EnvBaseParams{Kind: config.EnvLending, Harder: true, Lending: &lendingBase}
	env, err := f.Create(lending, 1)
	require.NoError(t, err)
	l := env.(*LendingEnv)
	assert.InDelta(t, 0.2, l.Params.ClusterProbabilities[1][0], 1e-12)
	assert.Equal(t, 0.1, lendingBase.ClusterProbabilities[1][0], "base parameters are not modified")

	_, err = f.Create(variant.EnvBaseParams{Kind: config.EnvLending}, 1)
	assert.Error(t, err)
}

func TestClone_Independent(t *testing.T) {
	params := testAttentionParams()
	params.IncidentRates = []float64{3, 3}
	env, err := NewHarderAttentionEnv(params, 5)
	require.NoError(t, err)

	c, err := Clone(env)
	require.NoError(t, err)
	clone := c.(*AttentionEnv)

	for i := 0; i < 20; i++ {
		a, err := env.Step(Action{0, 1})
		require.NoError(t, err)
		b, err := clone.Step(Action{0, 1})
		require.NoError(t, err)
		assert.Equal(t, a, b, "clone replays the same stream")
	}

	_, err = clone.Step(Action{1, 0})
	require.NoError(t, err)
	assert.NotEqual(t, env.Rates, clone.Rates)

	clone.Seed(99)
	assert.NotEqual(t, env.RNG, clone.RNG)
}

func TestFairWrapper_Shaping(t *testing.T) {
	inner := &stubEnv{next: Transition{
		MainReward:   3,
		Penalty:      1,
		Numerators:   []float64{1, 0},
		Denominators: []float64{1, 1},
	}}
	w, err := NewFairWrapper(inner, variant.ShapingParams{
		Zeta:                []float64{1, 0.5, 2},
		RegularizationIndex: 2,
		EpTimesteps:         3,
	})
	require.NoError(t, err)
	w.Reset()

	tr, err := w.Step(Action{1, 0})
	require.NoError(t, err)
	// bias jumps from 0 to 1
	assert.InDelta(t, 3-0.5*1-2*1, tr.Reward, 1e-12)
	assert.Equal(t, 3.0, tr.MainReward)
	assert.Equal(t, 1.0, tr.Bias)
	assert.False(t, tr.Done)

	tr, err = w.Step(Action{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 3-0.5, tr.Reward, 1e-12, "unchanged bias is not penalized")

	tr, err = w.Step(Action{1, 0})
	require.NoError(t, err)
	assert.True(t, tr.Done, "episode is truncated at EpTimesteps")

	w.Reset()
	assert.Zero(t, w.Steps)
	assert.Equal(t, []float64{0, 0}, w.Numerators)
}

func TestFairWrapper_IncludeDelta(t *testing.T) {
	inner := &stubEnv{next: Transition{
		Numerators:   []float64{1, 1},
		Denominators: []float64{1, 2},
	}}
	w, err := NewFairWrapper(inner, variant.ShapingParams{
		IncludeDelta: true,
		Zeta:         []float64{1},
		EpTimesteps:  10,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, w.ObservationSize())
	assert.Len(t, w.Reset(), 4)

	tr, err := w.Step(Action{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0.5}, tr.Observation)

	_, err = NewFairWrapper(inner, variant.ShapingParams{Zeta: []float64{1}})
	assert.Error(t, err)
}

func TestMonitorAndVecEnv(t *testing.T) {
	inner := &stubEnv{next: Transition{
		MainReward:   2,
		Numerators:   []float64{0, 0},
		Denominators: []float64{0, 0},
	}}
	w, err := NewFairWrapper(inner, variant.ShapingParams{Zeta: []float64{1, 0}, RegularizationIndex: 1, EpTimesteps: 2})
	require.NoError(t, err)

	vec := NewVecEnv(NewMonitor(w))
	vec.Reset()
	require.Equal(t, 1, inner.resets)

	for i := 0; i < 4; i++ {
		res, err := vec.Step(Action{1, 0})
		require.NoError(t, err)
		if res.Done {
			assert.Equal(t, []float64{0, 0}, res.Observation, "episode end returns the reset observation")
		}
	}

	assert.Equal(t, 3, inner.resets)
	episodes := vec.Monitor().Episodes()
	require.Len(t, episodes, 2)
	assert.Equal(t, Episode{Return: 4, MainReturn: 4, Length: 2}, episodes[0])
}
