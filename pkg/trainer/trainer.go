// Package trainer implements the policy-optimization algorithms the
// experiments train with: a clipped policy-gradient learner whose objective
// is adjusted per algorithm variant, periodic evaluation and checkpointing.
package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/brianbland/fairrl/pkg/environment"
	"github.com/brianbland/fairrl/pkg/history"
	"github.com/brianbland/fairrl/pkg/variant"
)

// Trainer learns a policy and persists it
type Trainer interface {
	// Learn runs totalSteps environment steps, calling hook after each one
	Learn(ctx context.Context, totalSteps int, hook Callback) error

	// Save writes the current policy to path
	Save(path string) error
}

// Saver is what callbacks may persist through
type Saver interface {
	Save(path string) error
}

// Callback is invoked after every training step
type Callback interface {
	OnStep(step int, s Saver) error
}

// CallbackFunc adapts a function to Callback
type CallbackFunc func(step int, s Saver) error

func (f CallbackFunc) OnStep(step int, s Saver) error { return f(step, s) }

// CallbackList runs callbacks in order and stops at the first error
type CallbackList []Callback

func (l CallbackList) OnStep(step int, s Saver) error {
	for _, c := range l {
		if err := c.OnStep(step, s); err != nil {
			return err
		}
	}
	return nil
}

// Recorder stores evaluation results
type Recorder interface {
	Append(ctx context.Context, r history.Record) error
}

// EvalConfig configures periodic evaluation. Env is a template: every
// evaluation episode runs on a reseeded clone, so Learn never steps or
// modifies it.
type EvalConfig struct {
	Params   variant.EvalParams
	Env      environment.Env
	Recorder Recorder
	Workers  int
}

// Config holds everything a trainer needs besides its environments
type Config struct {
	RunID      string
	Variant    variant.Variant
	Mitigation variant.MitigationParams
	Baselines  variant.BaselineParams
	Training   variant.TrainingParams
	Eval       EvalConfig

	Epochs      int    // optimization passes over each rollout
	MetricsPath string // prometheus textfile, empty to disable
}

// Artifact is the saved form of a trained policy
type Artifact struct {
	RunID   string          `json:"run_id"`
	Variant variant.Variant `json:"variant"`
	Steps   int             `json:"steps"`
	Policy  json.RawMessage `json:"policy"`
}

// ReadArtifact loads a saved policy artifact
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	return a, nil
}

func writeArtifact(path string, a Artifact, policy Policy) error {
	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	a.Policy = raw

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return nil
}
