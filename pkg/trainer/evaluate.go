package trainer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/brianbland/fairrl/pkg/environment"
	"github.com/brianbland/fairrl/pkg/history"
	"github.com/brianbland/fairrl/pkg/randomizer"
)

// evalSeedOffset separates evaluation streams from the training stream
const evalSeedOffset = 1 << 32

// EpisodeResult is the outcome of one evaluation episode
type EpisodeResult struct {
	Return float64
	Length int
	Bias   float64
	Rates  []float64
}

// RunEpisode plays one episode of env with policy
func RunEpisode(ctx context.Context, env environment.Env, policy Policy, rng *randomizer.RNG) (EpisodeResult, error) {
	groups := env.NumGroups()
	num := make([]float64, groups)
	den := make([]float64, groups)

	var res EpisodeResult
	obs := env.Reset()
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		action, _ := policy.Sample(obs, rng)
		t, err := env.Step(action)
		if err != nil {
			return res, err
		}
		res.Return += t.Reward
		res.Length++
		res.Bias = t.Bias
		for g := 0; g < groups; g++ {
			num[g] += t.Numerators[g]
			den[g] += t.Denominators[g]
		}
		if t.Done {
			break
		}
		obs = t.Observation
	}
	res.Rates = environment.Rates(num, den)
	return res, nil
}

// evaluate runs the evaluation episodes concurrently on clones of the
// evaluation environment and records the aggregate
func (p *PPO) evaluate(ctx context.Context) error {
	eval := p.cfg.Eval
	n := eval.Params.NumEpsEval
	if n <= 0 {
		return nil
	}

	results := make([]EpisodeResult, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(eval.Workers, 1))
	for i := range results {
		i := i
		g.Go(func() error {
			env, err := environment.Clone(eval.Env)
			if err != nil {
				return err
			}
			seed := p.cfg.Training.Seed + evalSeedOffset + int64(p.steps)*int64(n) + int64(i)
			env.Seed(seed)
			res, err := RunEpisode(gctx, env, p.policy, randomizer.NewRNG(seed))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("evaluation at step %d: %w", p.steps, err)
	}

	record := aggregate(results)
	record.RunID = p.cfg.RunID
	record.Step = p.steps
	record.CreatedAt = time.Now()

	if eval.Recorder != nil {
		if err := eval.Recorder.Append(ctx, record); err != nil {
			return fmt.Errorf("failed to record evaluation at step %d: %w", p.steps, err)
		}
	}

	p.metrics.EvalReturn.Set(record.MeanReturn)
	p.metrics.EvalBias.Set(record.MeanBias)
	for group, rate := range record.Rates {
		p.metrics.EvalRate.WithLabelValues(strconv.Itoa(group)).Set(rate)
	}
	p.logger.Info("evaluation",
		zap.Int("step", record.Step),
		zap.Float64("mean_return", record.MeanReturn),
		zap.Float64("std_return", record.StdReturn),
		zap.Float64("mean_bias", record.MeanBias),
		zap.Float64s("rates", record.Rates),
	)
	return p.flushMetrics()
}

func aggregate(results []EpisodeResult) history.Record {
	returns := make([]float64, len(results))
	biases := make([]float64, len(results))
	var rates []float64
	for i, r := range results {
		returns[i] = r.Return
		biases[i] = r.Bias
		if rates == nil {
			rates = make([]float64, len(r.Rates))
		}
		for g, v := range r.Rates {
			rates[g] += v / float64(len(results))
		}
	}

	var rec history.Record
	rec.MeanReturn = stat.Mean(returns, nil)
	if len(returns) > 1 {
		rec.StdReturn = stat.StdDev(returns, nil)
	}
	rec.MeanBias = stat.Mean(biases, nil)
	rec.Rates = rates
	return rec
}
