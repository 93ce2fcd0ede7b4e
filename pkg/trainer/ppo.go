package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/brianbland/fairrl/pkg/environment"
	"github.com/brianbland/fairrl/pkg/randomizer"
	"github.com/brianbland/fairrl/pkg/variant"
)

const defaultEpochs = 4

// rollout is the buffer of one policy update
type rollout struct {
	obs          [][]float64
	actions      []environment.Action
	logps        []float64
	values       []float64
	rewards      []float64
	dones        []bool
	numerators   [][]float64
	denominators [][]float64
	biases       []float64
	prevBiases   []float64
}

func newRollout(n int) *rollout {
	return &rollout{
		obs:          make([][]float64, 0, n),
		actions:      make([]environment.Action, 0, n),
		logps:        make([]float64, 0, n),
		values:       make([]float64, 0, n),
		rewards:      make([]float64, 0, n),
		dones:        make([]bool, 0, n),
		numerators:   make([][]float64, 0, n),
		denominators: make([][]float64, 0, n),
		biases:       make([]float64, 0, n),
		prevBiases:   make([]float64, 0, n),
	}
}

func (r *rollout) add(obs []float64, action environment.Action, logp, value float64, t environment.Transition, prevBias float64) {
	r.obs = append(r.obs, obs)
	r.actions = append(r.actions, action)
	r.logps = append(r.logps, logp)
	r.values = append(r.values, value)
	r.rewards = append(r.rewards, t.Reward)
	r.dones = append(r.dones, t.Done)
	r.numerators = append(r.numerators, t.Numerators)
	r.denominators = append(r.denominators, t.Denominators)
	r.biases = append(r.biases, t.Bias)
	r.prevBiases = append(r.prevBiases, prevBias)
}

func (r *rollout) len() int { return len(r.rewards) }

// PPO is a clipped policy-gradient learner. The variant decides how the
// per-step advantages are formed: ELBERT adds the gradient of the squared
// soft bias, APPO penalizes bias increases, GPPO and RPPO optimize the
// (shaped) environment reward as is.
type PPO struct {
	cfg     Config
	env     *environment.VecEnv
	policy  Policy
	rng     randomizer.RNG
	metrics *Metrics
	logger  *zap.Logger

	steps    int
	prevBias float64
}

// NewPPO creates a learner on env. A nil policyClass selects the linear
// softmax policy.
func NewPPO(cfg Config, env *environment.VecEnv, policyClass PolicyClass, metrics *Metrics, logger *zap.Logger) (*PPO, error) {
	if env == nil {
		return nil, errors.New("training environment is required")
	}
	if cfg.Training.BufferSizeTraining <= 0 {
		return nil, fmt.Errorf("buffer size (%d) must be positive", cfg.Training.BufferSizeTraining)
	}
	if cfg.Training.LR <= 0 {
		return nil, fmt.Errorf("learning rate (%g) must be positive", cfg.Training.LR)
	}
	if cfg.Eval.Params.EvalInterval > 0 && cfg.Eval.Env == nil {
		return nil, errors.New("evaluation environment is required when evaluation is enabled")
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = defaultEpochs
	}
	if policyClass == nil {
		policyClass = NewLinearSoftmaxPolicy
	}
	if metrics == nil {
		metrics = NewMetrics(cfg.Variant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PPO{
		cfg:     cfg,
		env:     env,
		policy:  policyClass(env.ObservationSize(), env.ActionSpec(), cfg.Training.Seed),
		rng:     *randomizer.NewRNG(cfg.Training.Seed),
		metrics: metrics,
		logger:  logger.With(zap.String("variant", string(cfg.Variant))),
	}, nil
}

// Steps returns the number of environment steps taken so far
func (p *PPO) Steps() int { return p.steps }

func (p *PPO) Learn(ctx context.Context, totalSteps int, hook Callback) error {
	if totalSteps <= 0 {
		return fmt.Errorf("total steps (%d) must be positive", totalSteps)
	}
	if hook == nil {
		hook = CallbackList(nil)
	}

	obs := p.env.Reset()
	p.prevBias = 0
	target := p.steps + totalSteps
	for p.steps < target {
		n := min(p.cfg.Training.BufferSizeTraining, target-p.steps)
		buf := newRollout(n)
		for buf.len() < n {
			if err := ctx.Err(); err != nil {
				return err
			}

			action, logp := p.policy.Sample(obs, &p.rng)
			value := p.policy.Value(obs)
			res, err := p.env.Step(action)
			if err != nil {
				return fmt.Errorf("training step %d: %w", p.steps, err)
			}
			buf.add(obs, action, logp, value, res.Transition, p.prevBias)

			p.prevBias = res.Bias
			if res.Done {
				p.prevBias = 0
				p.metrics.Episodes.Inc()
			}
			obs = res.Observation
			p.steps++
			p.metrics.Steps.Inc()

			if err := hook.OnStep(p.steps, p); err != nil {
				return err
			}
			if interval := p.cfg.Eval.Params.EvalInterval; interval > 0 && p.steps%interval == 0 {
				if err := p.evaluate(ctx); err != nil {
					return err
				}
			}
		}

		last := 0.0
		if !buf.dones[buf.len()-1] {
			last = p.policy.Value(obs)
		}
		p.update(buf, last)
		p.metrics.Updates.Inc()
	}

	// the end of the budget is always evaluated
	if interval := p.cfg.Eval.Params.EvalInterval; interval > 0 && p.steps%interval != 0 {
		if err := p.evaluate(ctx); err != nil {
			return err
		}
	}
	return p.flushMetrics()
}

// update runs the clipped policy-gradient epochs over one rollout
func (p *PPO) update(buf *rollout, last float64) {
	gamma := p.cfg.Training.Gamma
	returns := discounted(buf.rewards, buf.dones, gamma, last)
	adv := make([]float64, len(returns))
	for t := range returns {
		adv[t] = returns[t] - buf.values[t]
	}

	switch p.cfg.Variant {
	case variant.VariantELBERT:
		adv = elbertAdvantages(adv, buf, gamma, p.cfg.Mitigation)
	case variant.VariantAPPO:
		adv = appoAdvantages(adv, buf, p.cfg.Baselines)
	}
	normalize(adv)

	lr := p.cfg.Training.LR
	clip := p.cfg.Training.ClipRange
	for epoch := 0; epoch < p.cfg.Epochs; epoch++ {
		for t := range adv {
			ratio := math.Exp(p.policy.LogProb(buf.obs[t], buf.actions[t]) - buf.logps[t])
			if (adv[t] > 0 && ratio > 1+clip) || (adv[t] < 0 && ratio < 1-clip) {
				continue
			}
			p.policy.Ascend(buf.obs[t], buf.actions[t], lr*ratio*adv[t])
		}
		for t := range returns {
			p.policy.FitValue(buf.obs[t], returns[t], lr)
		}
	}
}

// Save writes the policy artifact to path
func (p *PPO) Save(path string) error {
	return writeArtifact(path, Artifact{
		RunID:   p.cfg.RunID,
		Variant: p.cfg.Variant,
		Steps:   p.steps,
	}, p.policy)
}

func (p *PPO) flushMetrics() error {
	if p.cfg.MetricsPath == "" {
		return nil
	}
	if err := p.metrics.WriteTextfile(p.cfg.MetricsPath); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
