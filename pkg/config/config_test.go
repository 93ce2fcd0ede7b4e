package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*pflag.FlagSet, RawOptions, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	p := NewParser(fs)
	p.RegisterFlags()
	require.NoError(t, fs.Parse(args))
	opts, err := p.Options()
	return fs, opts, err
}

func TestParser_Defaults(t *testing.T) {
	_, opts, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, EnvAttention, opts.Env)
	assert.Equal(t, "ELBERT", opts.Algorithm)
	assert.Equal(t, 20000.0, opts.BiasCoef)
	assert.Equal(t, []float64{8, 6, 4, 3, 1.5}, opts.IncidentRates)
	assert.True(t, opts.IncludeDelta)
	assert.Equal(t, []float64{1, 0.25, 0}, opts.Zeta())
}

func TestParser_LendingDefaultsPreserveUserFlags(t *testing.T) {
	_, opts, err := parse(t, "--env=lending", "--omega-appo=0.5")
	require.NoError(t, err)

	assert.Equal(t, EnvLending, opts.Env)
	assert.Equal(t, 200000.0, opts.BiasCoef)
	assert.Equal(t, 10_000_000, opts.TrainTimesteps)
	assert.Equal(t, 0.5, opts.OmegaAPPO, "explicit flag must survive kind defaults")
	assert.Equal(t, []float64{1, 0}, opts.Zeta())
}

func TestParser_NoIncludeDelta(t *testing.T) {
	_, opts, err := parse(t, "--no-include-delta")
	require.NoError(t, err)
	assert.False(t, opts.IncludeDelta)
}

func TestParser_IncidentRatesMustMatchLocations(t *testing.T) {
	_, _, err := parse(t, "--n-locations=3")
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "incident-rates", cfgErr.Field)
}

func TestParser_UnknownEnv(t *testing.T) {
	_, _, err := parse(t, "--env=chess")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestConflicts(t *testing.T) {
	fs, _, err := parse(t, "--algorithm=APPO", "--bias-coef=5", "--lr=0.001")
	require.NoError(t, err)

	assert.Equal(t, []string{"bias-coef"}, Conflicts(fs, []string{"bias-coef", "zeta-2", "main-reward-coef"}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawOptions)
		field  string
	}{
		{"non-positive lr", func(o *RawOptions) { o.LR = 0 }, "lr"},
		{"zero budget", func(o *RawOptions) { o.TrainTimesteps = 0 }, "train-timesteps"},
		{"negative index", func(o *RawOptions) { o.ExpIndex = -1 }, "exp-index"},
		{"dynamic rate above one", func(o *RawOptions) { o.DynamicRate = 1.5 }, "dynamic-rate"},
		{"negative incident rate", func(o *RawOptions) { o.IncidentRates[0] = -1 }, "incident-rates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions(EnvAttention)
			tt.mutate(&opts)
			err := opts.Validate()
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_HarderChecksSizing(t *testing.T) {
	opts := DefaultOptions(EnvAttention)
	opts.Harder = true
	assert.NoError(t, opts.Validate())

	opts.NLocations = 3
	opts.IncidentRates = []float64{1, 2}
	var cfgErr *ConfigurationError
	require.ErrorAs(t, opts.Validate(), &cfgErr)
	assert.Equal(t, "incident-rates", cfgErr.Field)
}

func TestEnvTag(t *testing.T) {
	opts := DefaultOptions(EnvAttention)
	assert.Equal(t, "original_env", opts.EnvTag())
	opts.Harder = true
	assert.Equal(t, "harder_env", opts.EnvTag())
	opts.ExpPathEnv = "custom"
	assert.Equal(t, "custom", opts.EnvTag())

	lending := DefaultOptions(EnvLending)
	assert.Equal(t, "ori_env", lending.EnvTag())
	lending.Harder = true
	assert.Equal(t, "new_env", lending.EnvTag())
}

func TestClone_DoesNotShareRates(t *testing.T) {
	opts := DefaultOptions(EnvAttention)
	c := opts.Clone()
	c.IncidentRates[0] = 100
	assert.Equal(t, 8.0, opts.IncidentRates[0])
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, "experiments", s.ExpDir)
	assert.Equal(t, 2, s.PlotSmooth)
	assert.Equal(t, 1000, s.Episodes(EnvAttention).EpTimesteps)
	assert.Equal(t, 2000, s.Episodes(EnvLending).EpTimestepsEval)
}

func TestLoadSettings_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exp_dir: /tmp/runs\neval_num_eps: 3\n"), 0o600))
	t.Setenv("FAIRRL_EVAL_NUM_EPS", "7")
	t.Setenv("FAIRRL_ATTENTION_EP_TIMESTEPS", "50")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/runs", s.ExpDir)
	assert.Equal(t, 7, s.EvalNumEps)
	assert.Equal(t, 50, s.Attention.EpTimesteps)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("FAIRRL_SAVE_FREQ", "0")
	_, err := LoadSettings("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save_freq")
}
