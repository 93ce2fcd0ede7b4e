package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

// Parser binds RawOptions to a flag set and resolves per-kind defaults
type Parser struct {
	opts    *RawOptions
	env     string
	flagSet *pflag.FlagSet
}

// NewParser creates a parser bound to fs. Flag defaults are those of the
// attention driver; lending defaults are applied after parsing to every
// flag the user did not set.
func NewParser(fs *pflag.FlagSet) *Parser {
	opts := DefaultOptions(EnvAttention)
	return &Parser{
		opts:    &opts,
		env:     string(EnvAttention),
		flagSet: fs,
	}
}

// RegisterFlags registers all per-run flags
func (p *Parser) RegisterFlags() {
	fs := p.flagSet
	o := p.opts

	fs.StringVar(&p.env, "env", p.env, "Environment kind: attention or lending")
	fs.StringVar(&o.Algorithm, "algorithm", o.Algorithm, "Algorithm: ELBERT, APPO, GPPO or RPPO")

	// Primary method
	fs.Float64Var(&o.BiasCoef, "bias-coef", o.BiasCoef, "Weight of the squared bias penalty (ELBERT)")
	fs.Float64Var(&o.BetaSmooth, "beta-smooth", o.BetaSmooth, "Temperature of the soft max/min over group benefit rates")
	fs.Float64Var(&o.MainRewardCoef, "main-reward-coef", o.MainRewardCoef, "Weight of the main return (ELBERT)")

	// Adaptive-penalty baseline
	fs.Float64Var(&o.OmegaAPPO, "omega-appo", o.OmegaAPPO, "Bias threshold above which APPO penalizes")
	fs.Float64Var(&o.Beta0APPO, "beta0-appo", o.Beta0APPO, "APPO weight of the main reward")
	fs.Float64Var(&o.Beta1APPO, "beta1-appo", o.Beta1APPO, "APPO weight of the bias-increase penalty")
	fs.Float64Var(&o.Beta2APPO, "beta2-appo", o.Beta2APPO, "APPO weight of the bias-level penalty")

	// Training
	fs.Float64Var(&o.LR, "lr", o.LR, "Learning rate")
	fs.IntVar(&o.TrainTimesteps, "train-timesteps", o.TrainTimesteps, "Total environment steps to train for")
	fs.IntVar(&o.BufferSizeTraining, "buffer-size-training", o.BufferSizeTraining, "Rollout buffer size (steps per update)")
	fs.IntVar(&o.ExpIndex, "exp-index", o.ExpIndex, "Experiment index appended to the run directory")
	fs.Int64Var(&o.Seed, "seed", o.Seed, "Random seed for environments and policy")

	// Base environment
	fs.BoolVar(&o.Harder, "harder-env", o.Harder, "Use the harder/modified environment variant")
	fs.IntVar(&o.NLocations, "n-locations", o.NLocations, "Number of locations (attention)")
	fs.Float64SliceVar(&o.IncidentRates, "incident-rates", o.IncidentRates, "Incident rate per location (attention)")
	fs.Float64Var(&o.DynamicRate, "dynamic-rate", o.DynamicRate, "Incident rate drift per step (attention)")
	fs.IntVar(&o.NAttentionUnits, "n-attention-units", o.NAttentionUnits, "Attention units allocated per step (attention)")

	// Wrapper and reward shaping
	f := fs.VarPF(&negatedBool{target: &o.IncludeDelta}, "no-include-delta", "", "Drop the benefit-rate delta from the observation")
	f.NoOptDefVal = "true"
	fs.Float64Var(&o.Zeta0, "zeta-0", o.Zeta0, "Shaping weight of the main reward")
	fs.Float64Var(&o.Zeta1, "zeta-1", o.Zeta1, "Shaping weight 1 (attention: missed incidents; lending: regularization)")
	fs.Float64Var(&o.Zeta2, "zeta-2", o.Zeta2, "Shaping weight 2 (attention: regularization)")

	// Directory naming
	fs.StringVar(&o.ExpPathEnv, "exp-path-env", o.ExpPathEnv, "Override the environment segment of the run directory")
	fs.StringVar(&o.ExpPathExtra, "exp-path-extra", o.ExpPathExtra, "Extra suffix of the run directory")
	fs.BoolVar(&o.Debug, "debug", o.Debug, "Debug run: an existing run directory is overwritten")
}

// Options returns the parsed options. Must be called after the flag set
// has been parsed.
func (p *Parser) Options() (RawOptions, error) {
	kind, err := ParseEnvKind(p.env)
	if err != nil {
		return RawOptions{}, err
	}

	opts := p.opts.Clone()
	opts.Env = kind

	// Preserve user settings, fill everything else from the kind's defaults
	if kind != EnvAttention {
		defaults := DefaultOptions(kind)
		for name, apply := range kindDefaults {
			if f := p.flagSet.Lookup(name); f != nil && f.Changed {
				continue
			}
			apply(&opts, defaults)
		}
	}

	if err := opts.Validate(); err != nil {
		return RawOptions{}, err
	}
	return opts, nil
}

// kindDefaults lists the flags whose default differs between kinds
var kindDefaults = map[string]func(dst *RawOptions, src RawOptions){
	"bias-coef":       func(dst *RawOptions, src RawOptions) { dst.BiasCoef = src.BiasCoef },
	"omega-appo":      func(dst *RawOptions, src RawOptions) { dst.OmegaAPPO = src.OmegaAPPO },
	"beta1-appo":      func(dst *RawOptions, src RawOptions) { dst.Beta1APPO = src.Beta1APPO },
	"beta2-appo":      func(dst *RawOptions, src RawOptions) { dst.Beta2APPO = src.Beta2APPO },
	"train-timesteps": func(dst *RawOptions, src RawOptions) { dst.TrainTimesteps = src.TrainTimesteps },
	"zeta-1":          func(dst *RawOptions, src RawOptions) { dst.Zeta1 = src.Zeta1 },
}

// Conflicts returns the flags among names that the user set explicitly
func Conflicts(fs *pflag.FlagSet, names []string) []string {
	var conflicting []string
	fs.Visit(func(f *pflag.Flag) {
		for _, name := range names {
			if f.Name == name {
				conflicting = append(conflicting, f.Name)
			}
		}
	})
	return conflicting
}

// negatedBool stores the inverse of the flag value into target
type negatedBool struct {
	target *bool
}

func (b *negatedBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean %q: %w", s, err)
	}
	*b.target = !v
	return nil
}

func (b *negatedBool) String() string {
	if b.target == nil {
		return "false"
	}
	return strconv.FormatBool(!*b.target)
}

func (b *negatedBool) Type() string { return "bool" }
