package trainer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/brianbland/fairrl/pkg/variant"
)

// softMax returns the beta-smoothed maximum of values and its gradient.
// A negative beta gives the smoothed minimum.
func softMax(values []float64, beta float64) (float64, []float64) {
	weights := make([]float64, len(values))
	for i, v := range values {
		weights[i] = beta * v
	}
	hi := floats.Max(weights)
	for i := range weights {
		weights[i] = math.Exp(weights[i] - hi)
	}
	floats.Scale(1/floats.Sum(weights), weights)

	f := floats.Dot(weights, values)
	grad := make([]float64, len(values))
	for i, v := range values {
		grad[i] = weights[i] * (1 + beta*(v-f))
	}
	return f, grad
}

// softBias returns the smoothed gap between the best and worst group rate
// and its gradient with respect to the rates
func softBias(rates []float64, beta float64) (float64, []float64) {
	hi, gradHi := softMax(rates, beta)
	lo, gradLo := softMax(rates, -beta)
	floats.Sub(gradHi, gradLo)
	return hi - lo, gradHi
}

// discounted returns the discounted return-to-go of rewards, restarting at
// episode ends and bootstrapping the tail with last
func discounted(rewards []float64, dones []bool, gamma, last float64) []float64 {
	out := make([]float64, len(rewards))
	running := last
	for t := len(rewards) - 1; t >= 0; t-- {
		if dones[t] {
			running = 0
		}
		running = rewards[t] + gamma*running
		out[t] = running
	}
	return out
}

// discountedGroups applies discounted to every group column of values
func discountedGroups(values [][]float64, dones []bool, gamma float64) [][]float64 {
	if len(values) == 0 {
		return nil
	}
	groups := len(values[0])
	out := make([][]float64, len(values))
	for t := range out {
		out[t] = make([]float64, groups)
	}
	column := make([]float64, len(values))
	for g := 0; g < groups; g++ {
		for t := range values {
			column[t] = values[t][g]
		}
		for t, v := range discounted(column, dones, gamma, 0) {
			out[t][g] = v
		}
	}
	return out
}

// elbertAdvantages turns main-return advantages into advantages of
//
//	main_reward_coef * return - bias_coef * bias^2
//
// where bias is the soft gap between the groups' long-term benefit rates
// numerator/denominator, each estimated from the rollout.
func elbertAdvantages(adv []float64, r *rollout, gamma float64, m variant.MitigationParams) []float64 {
	gn := discountedGroups(r.numerators, r.dones, gamma)
	gd := discountedGroups(r.denominators, r.dones, gamma)
	groups := len(gn[0])

	num := make([]float64, groups)
	den := make([]float64, groups)
	rates := make([]float64, groups)
	for g := 0; g < groups; g++ {
		for t := range gn {
			num[g] += gn[t][g]
			den[g] += gd[t][g]
		}
		num[g] /= float64(len(gn))
		den[g] /= float64(len(gd))
		if den[g] > 0 {
			rates[g] = num[g] / den[g]
		}
	}
	bias, grad := softBias(rates, m.BetaSmooth)

	out := make([]float64, len(adv))
	for t := range adv {
		fair := 0.0
		for g := 0; g < groups; g++ {
			if den[g] > 0 {
				fair += grad[g] * (gn[t][g] - rates[g]*gd[t][g]) / den[g]
			}
		}
		out[t] = m.MainRewardCoef*adv[t] - 2*m.BiasCoef*bias*fair
	}
	return out
}

// appoAdvantages penalizes steps that increased the bias: with beta_1 once
// the bias exceeds omega, with beta_2 below it
func appoAdvantages(adv []float64, r *rollout, b variant.BaselineParams) []float64 {
	out := make([]float64, len(adv))
	for t := range adv {
		increase := math.Max(0, r.biases[t]-r.prevBiases[t])
		coef := b.Beta2APPO
		if r.biases[t] > b.OmegaAPPO {
			coef = b.Beta1APPO
		}
		out[t] = b.Beta0APPO*adv[t] - coef*increase
	}
	return out
}

// normalize centers and scales values in place
func normalize(values []float64) {
	if len(values) == 0 {
		return
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 || std == 0 || math.IsNaN(std) {
		std = 1
	}
	for i := range values {
		values[i] = (values[i] - mean) / std
	}
}
