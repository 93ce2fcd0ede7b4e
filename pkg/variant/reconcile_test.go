package variant

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianbland/fairrl/pkg/config"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	s, err := config.LoadSettings("")
	require.NoError(t, err)
	return s
}

func TestParseVariant(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(string(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	got, err := ParseVariant(" elbert ")
	require.NoError(t, err)
	assert.Equal(t, VariantELBERT, got)

	_, err = ParseVariant("DQN")
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "algorithm", cfgErr.Field)
}

func TestReconcile_PenaltyBaselinesForceNeutralCoefficients(t *testing.T) {
	for _, kind := range []config.EnvKind{config.EnvAttention, config.EnvLending} {
		for _, algo := range []string{"APPO", "GPPO"} {
			for _, bias := range []float64{20000, -3, 0.5} {
				opts := config.DefaultOptions(kind)
				opts.Algorithm = algo
				opts.BiasCoef = bias
				opts.MainRewardCoef = 0.25
				opts.Zeta1, opts.Zeta2 = 7, 9

				g, err := Reconcile(opts, testSettings(t))
				require.NoError(t, err)

				assert.Zero(t, g.Mitigation.BiasCoef)
				assert.Equal(t, 1.0, g.Mitigation.MainRewardCoef)
				assert.Zero(t, g.ShapingTrain.RegularizationCoef())
			}
		}
	}
}

func TestReconcile_ScenarioA(t *testing.T) {
	opts := config.DefaultOptions(config.EnvAttention)
	opts.Algorithm = "APPO"
	opts.BiasCoef = 20000

	g, err := Reconcile(opts, testSettings(t))
	require.NoError(t, err)

	assert.Equal(t, MitigationParams{BiasCoef: 0, BetaSmooth: 20, MainRewardCoef: 1}, g.Mitigation)
	assert.True(t, g.Baselines.APPO)
	assert.Equal(t, VariantAPPO, g.Baselines.Method)
}

func TestReconcile_ELBERTRejectsNegativeBias(t *testing.T) {
	opts := config.DefaultOptions(config.EnvAttention)
	opts.BiasCoef = -1

	_, err := Reconcile(opts, testSettings(t))
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "bias-coef", cfgErr.Field)
}

func TestReconcile_ELBERTKeepsCoefficientsAndDisablesRegularization(t *testing.T) {
	opts := config.DefaultOptions(config.EnvAttention)
	opts.BiasCoef = 500
	opts.MainRewardCoef = 0.5
	opts.Zeta2 = 10

	g, err := Reconcile(opts, testSettings(t))
	require.NoError(t, err)

	assert.Equal(t, 500.0, g.Mitigation.BiasCoef)
	assert.Equal(t, 0.5, g.Mitigation.MainRewardCoef)
	assert.Zero(t, g.ShapingTrain.RegularizationCoef())
	assert.False(t, g.Baselines.APPO)
}

func TestReconcile_RPPO(t *testing.T) {
	opts := config.DefaultOptions(config.EnvLending)
	opts.Algorithm = "RPPO"
	opts.Zeta1 = 2
	opts.BiasCoef = 99
	opts.MainRewardCoef = 3

	g, err := Reconcile(opts, testSettings(t))
	require.NoError(t, err)

	assert.Zero(t, g.Mitigation.BiasCoef)
	assert.Equal(t, 1.0, g.Mitigation.MainRewardCoef)
	assert.Equal(t, 2.0, g.ShapingTrain.RegularizationCoef())
	assert.Zero(t, g.ShapingEval.RegularizationCoef())
}

func TestReconcile_RPPORejectsNegativeRegularization(t *testing.T) {
	opts := config.DefaultOptions(config.EnvAttention)
	opts.Algorithm = "RPPO"
	opts.Zeta2 = -0.5

	_, err := Reconcile(opts, testSettings(t))
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "zeta-2", cfgErr.Field)
}

func TestReconcile_EvalShapingAlwaysDropsRegularization(t *testing.T) {
	s := testSettings(t)
	s.Attention.EpTimestepsEval = 123

	for _, algo := range []string{"ELBERT", "APPO", "GPPO", "RPPO"} {
		opts := config.DefaultOptions(config.EnvAttention)
		opts.Algorithm = algo
		opts.Zeta2 = 10

		g, err := Reconcile(opts, s)
		require.NoError(t, err)

		assert.Zero(t, g.ShapingEval.RegularizationCoef(), algo)
		assert.Equal(t, 123, g.ShapingEval.EpTimesteps)
		assert.Equal(t, g.ShapingTrain.Zeta[0], g.ShapingEval.Zeta[0])
		assert.Equal(t, g.ShapingTrain.Zeta[1], g.ShapingEval.Zeta[1])
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	opts := config.DefaultOptions(config.EnvAttention)
	opts.Algorithm = "APPO"
	opts.BiasCoef = 42
	before := opts.Clone()

	g, err := Reconcile(opts, testSettings(t))
	require.NoError(t, err)
	g.EnvBase.Attention.IncidentRates[0] = -1

	assert.Equal(t, before, opts)
}

func TestIgnoredFlags(t *testing.T) {
	assert.Equal(t, []string{"bias-coef", "zeta-2", "main-reward-coef"}, VariantAPPO.IgnoredFlags(config.EnvAttention))
	assert.Equal(t, []string{"zeta-1", "zeta-2"}, VariantELBERT.IgnoredFlags(config.EnvLending))
	assert.Equal(t, []string{"bias-coef", "main-reward-coef", "zeta-2"}, VariantRPPO.IgnoredFlags(config.EnvLending))
	assert.Equal(t, []string{"bias-coef", "main-reward-coef"}, VariantRPPO.IgnoredFlags(config.EnvAttention))
}

func TestShapingParams_MarshalJSON(t *testing.T) {
	p := ShapingParams{IncludeDelta: true, Zeta: []float64{1, 0.25, 0}, RegularizationIndex: 2, EpTimesteps: 1000}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"include_delta":true,"zeta_0":1,"zeta_1":0.25,"zeta_2":0,"ep_timesteps":1000}`, string(data))
}

func TestEnvBaseParams_MarshalJSON(t *testing.T) {
	p := EnvBaseParams{
		Kind:      config.EnvAttention,
		Attention: &AttentionBase{NLocations: 2, IncidentRates: []float64{1, 2}, DynamicRate: 0.1, NAttentionUnits: 3},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"harderEnv":false,"N_LOCATIONS":2,"INCIDENT_RATES":[1,2],"DYNAMIC_RATE":0.1,"N_ATTENTION_UNITS":3}`, string(data))

	stub, err := json.Marshal(EnvBaseParams{Kind: config.EnvLending, Harder: true, Lending: &LendingBase{}}.Recorded())
	require.NoError(t, err)
	assert.Equal(t, `{"modifedEnv":true}`, string(stub))
}
