package config

import (
	"fmt"
	"strings"
)

// EnvKind selects which allocation simulator an experiment runs against
type EnvKind string

const (
	EnvAttention EnvKind = "attention"
	EnvLending   EnvKind = "lending"
)

// ParseEnvKind parses a string into an EnvKind
func ParseEnvKind(s string) (EnvKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attention", "attention_allocation":
		return EnvAttention, nil
	case "lending", "delayed_impact":
		return EnvLending, nil
	default:
		return "", &ConfigurationError{Field: "env", Reason: fmt.Sprintf("unknown environment kind %q", s)}
	}
}

// RegularizationIndex returns the position of the regularization shaping
// coefficient inside the zeta vector for this kind.
func (k EnvKind) RegularizationIndex() int {
	if k == EnvLending {
		return 1
	}
	return 2
}

// StandardTag and HarderTag name the environment segment of experiment paths.
func (k EnvKind) StandardTag() string {
	if k == EnvLending {
		return "ori_env"
	}
	return "original_env"
}

func (k EnvKind) HarderTag() string {
	if k == EnvLending {
		return "new_env"
	}
	return "harder_env"
}

// RawOptions holds the flat set of user-supplied options for one run.
// It is treated as a value: nothing downstream mutates it in place.
type RawOptions struct {
	Env       EnvKind
	Algorithm string

	// Primary method
	BiasCoef       float64 // weight of the squared bias penalty
	BetaSmooth     float64 // temperature of the soft max/min over group rates
	MainRewardCoef float64 // weight of the main return

	// Adaptive-penalty baseline
	OmegaAPPO float64
	Beta0APPO float64
	Beta1APPO float64
	Beta2APPO float64

	// Training
	LR                 float64
	TrainTimesteps     int
	BufferSizeTraining int
	ExpIndex           int
	Seed               int64

	// Base environment
	Harder          bool
	NLocations      int
	IncidentRates   []float64
	DynamicRate     float64
	NAttentionUnits int

	// Wrapper and reward shaping
	IncludeDelta bool
	Zeta0        float64
	Zeta1        float64
	Zeta2        float64 // attention only

	// Directory naming
	ExpPathEnv   string
	ExpPathExtra string
	Debug        bool
}

// DefaultOptions returns the defaults of the driver for the given kind
func DefaultOptions(kind EnvKind) RawOptions {
	opts := RawOptions{
		Env:                kind,
		Algorithm:          "ELBERT",
		BiasCoef:           20000,
		BetaSmooth:         20,
		MainRewardCoef:     1,
		OmegaAPPO:          0.05,
		Beta0APPO:          1,
		Beta1APPO:          0.15,
		Beta2APPO:          0.15,
		LR:                 1e-5,
		TrainTimesteps:     5_000_000,
		BufferSizeTraining: 4096,
		ExpIndex:           0,
		Seed:               0,
		NLocations:         5,
		IncidentRates:      []float64{8, 6, 4, 3, 1.5},
		DynamicRate:        0.1,
		NAttentionUnits:    6,
		IncludeDelta:       true,
		Zeta0:              1,
		Zeta1:              0.25,
		Zeta2:              0,
	}

	if kind == EnvLending {
		opts.BiasCoef = 200000
		opts.OmegaAPPO = 0.005
		opts.Beta1APPO = 0.25
		opts.Beta2APPO = 0.25
		opts.TrainTimesteps = 10_000_000
		opts.Zeta1 = 0
	}
	return opts
}

// Zeta returns the ordered shaping coefficients used by this kind
func (o RawOptions) Zeta() []float64 {
	if o.Env == EnvLending {
		return []float64{o.Zeta0, o.Zeta1}
	}
	return []float64{o.Zeta0, o.Zeta1, o.Zeta2}
}

// EnvTag returns the environment segment of the experiment path
func (o RawOptions) EnvTag() string {
	if o.ExpPathEnv != "" {
		return o.ExpPathEnv
	}
	if o.Harder {
		return o.Env.HarderTag()
	}
	return o.Env.StandardTag()
}

// Clone returns a copy that shares no slices with o
func (o RawOptions) Clone() RawOptions {
	c := o
	c.IncidentRates = append([]float64(nil), o.IncidentRates...)
	return c
}

// Validate checks option ranges that hold for every algorithm variant
func (o RawOptions) Validate() error {
	if o.Env != EnvAttention && o.Env != EnvLending {
		return &ConfigurationError{Field: "env", Reason: fmt.Sprintf("unknown environment kind %q", o.Env)}
	}
	if o.LR <= 0 {
		return &ConfigurationError{Field: "lr", Reason: fmt.Sprintf("learning rate (%g) must be positive", o.LR)}
	}
	if o.TrainTimesteps <= 0 {
		return &ConfigurationError{Field: "train-timesteps", Reason: fmt.Sprintf("step budget (%d) must be positive", o.TrainTimesteps)}
	}
	if o.BufferSizeTraining <= 0 {
		return &ConfigurationError{Field: "buffer-size-training", Reason: fmt.Sprintf("rollout buffer size (%d) must be positive", o.BufferSizeTraining)}
	}
	if o.ExpIndex < 0 {
		return &ConfigurationError{Field: "exp-index", Reason: fmt.Sprintf("experiment index (%d) must not be negative", o.ExpIndex)}
	}
	if o.BetaSmooth <= 0 {
		return &ConfigurationError{Field: "beta-smooth", Reason: fmt.Sprintf("smoothing coefficient (%g) must be positive", o.BetaSmooth)}
	}

	// the harder attention variant is sized by the same options
	if o.Env == EnvAttention {
		if o.NLocations <= 0 {
			return &ConfigurationError{Field: "n-locations", Reason: fmt.Sprintf("number of locations (%d) must be positive", o.NLocations)}
		}
		if len(o.IncidentRates) != o.NLocations {
			return &ConfigurationError{Field: "incident-rates", Reason: fmt.Sprintf("got %d incident rates for %d locations", len(o.IncidentRates), o.NLocations)}
		}
		for i, r := range o.IncidentRates {
			if r < 0 {
				return &ConfigurationError{Field: "incident-rates", Reason: fmt.Sprintf("incident rate %d (%g) must not be negative", i, r)}
			}
		}
		if o.NAttentionUnits <= 0 {
			return &ConfigurationError{Field: "n-attention-units", Reason: fmt.Sprintf("number of attention units (%d) must be positive", o.NAttentionUnits)}
		}
		if o.DynamicRate < 0 || o.DynamicRate > 1 {
			return &ConfigurationError{Field: "dynamic-rate", Reason: fmt.Sprintf("dynamic rate (%g) must be between 0 and 1", o.DynamicRate)}
		}
	}

	return nil
}
