package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/environment"
	"github.com/brianbland/fairrl/pkg/history"
	"github.com/brianbland/fairrl/pkg/manifest"
	"github.com/brianbland/fairrl/pkg/variant"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, cmd.Name())
	}
	for _, name := range []string{"train", "plot", "show", "variants"} {
		assert.True(t, names[name], "missing %s command", name)
	}
}

func TestTrainCmd_Flags(t *testing.T) {
	for _, name := range []string{"env", "algorithm", "bias-coef", "beta-smooth", "lr", "exp-index", "no-include-delta", "debug"} {
		assert.NotNil(t, trainCmd.Flags().Lookup(name), name)
	}
}

func TestVariantsCmd(t *testing.T) {
	out, err := execute(t, "variants")
	require.NoError(t, err)
	for _, v := range variant.Variants() {
		assert.Contains(t, out, v.Description())
	}
	for _, tag := range []string{"original_env", "harder_env", "ori_env", "new_env"} {
		assert.Contains(t, out, tag)
	}
	for _, p := range environment.Presets() {
		assert.Contains(t, out, p.Description)
	}
}

func TestShowCmd(t *testing.T) {
	dir := t.TempDir()

	settings, err := config.LoadSettings("")
	require.NoError(t, err)
	g, err := variant.Reconcile(config.DefaultOptions(config.EnvLending), settings)
	require.NoError(t, err)
	require.NoError(t, manifest.Write(dir, g, variant.EvalParams{EvalWritePath: dir, EvalInterval: 10, NumEpsEval: 2}))

	ctx := context.Background()
	store, err := history.Open(ctx, history.Path(dir))
	require.NoError(t, err)
	runID := history.NewRunID()
	for step, ret := range []float64{1, 3, 2} {
		require.NoError(t, store.Append(ctx, history.Record{
			RunID:      runID,
			Step:       (step + 1) * 10,
			MeanReturn: ret,
			MeanBias:   0.1,
			Rates:      []float64{0.4, 0.5},
		}))
	}
	require.NoError(t, store.Close())

	out, err := execute(t, "show", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"method": "ELBERT"`)
	assert.Contains(t, out, "EVALUATION SUMMARY")
	assert.Contains(t, out, runID)
}

func TestShowCmd_WithoutHistoryLeavesDirUntouched(t *testing.T) {
	dir := t.TempDir()
	settings, err := config.LoadSettings("")
	require.NoError(t, err)
	g, err := variant.Reconcile(config.DefaultOptions(config.EnvAttention), settings)
	require.NoError(t, err)
	require.NoError(t, manifest.Write(dir, g, variant.EvalParams{EvalWritePath: dir}))

	out, err := execute(t, "show", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No evaluations recorded")
	assert.NoFileExists(t, history.Path(dir))
}

func TestShowCmd_MissingDir(t *testing.T) {
	_, err := execute(t, "show", t.TempDir()+"/missing")
	assert.Error(t, err)
}
