package variant

import (
	"fmt"

	"github.com/brianbland/fairrl/pkg/config"
)

// negativeTolerance treats tiny negative coefficients from float parsing as zero-ish
const negativeTolerance = -1e-5

// coefficients are the values a variant decides for itself
type coefficients struct {
	BiasCoef       float64
	MainRewardCoef float64
	Regularization float64
}

// Reconcile converts raw options into the parameter groups of the selected
// variant. It does not modify opts.
func Reconcile(opts config.RawOptions, settings config.Settings) (Groups, error) {
	if err := opts.Validate(); err != nil {
		return Groups{}, err
	}

	v, err := ParseVariant(opts.Algorithm)
	if err != nil {
		return Groups{}, err
	}

	coefs, err := reconcileCoefficients(v, opts)
	if err != nil {
		return Groups{}, err
	}

	zeta := opts.Zeta()
	regIdx := opts.Env.RegularizationIndex()
	zeta[regIdx] = coefs.Regularization

	episodes := settings.Episodes(opts.Env)
	train := ShapingParams{
		IncludeDelta:        opts.IncludeDelta,
		Zeta:                zeta,
		RegularizationIndex: regIdx,
		EpTimesteps:         episodes.EpTimesteps,
	}

	return Groups{
		Variant: v,
		Mitigation: MitigationParams{
			BiasCoef:       coefs.BiasCoef,
			BetaSmooth:     opts.BetaSmooth,
			MainRewardCoef: coefs.MainRewardCoef,
		},
		Baselines: BaselineParams{
			Method:    v,
			APPO:      v == VariantAPPO,
			OmegaAPPO: opts.OmegaAPPO,
			Beta0APPO: opts.Beta0APPO,
			Beta1APPO: opts.Beta1APPO,
			Beta2APPO: opts.Beta2APPO,
		},
		EnvBase:      envBase(opts),
		ShapingTrain: train,
		ShapingEval:  evalShaping(train, episodes),
		Training: TrainingParams{
			LR:                 opts.LR,
			TrainTimesteps:     opts.TrainTimesteps,
			BufferSizeTraining: opts.BufferSizeTraining,
			Seed:               opts.Seed,
			Gamma:              settings.Gamma,
			ClipRange:          settings.ClipRange,
		},
	}, nil
}

// reconcileCoefficients decides the penalty, main-reward and regularization
// coefficients. Every variant sets all three.
func reconcileCoefficients(v Variant, opts config.RawOptions) (coefficients, error) {
	reg := opts.Zeta()[opts.Env.RegularizationIndex()]

	switch v {
	case VariantAPPO, VariantGPPO:
		return coefficients{BiasCoef: 0, MainRewardCoef: 1, Regularization: 0}, nil

	case VariantELBERT:
		if opts.BiasCoef < negativeTolerance {
			return coefficients{}, &config.ConfigurationError{
				Field:  "bias-coef",
				Reason: fmt.Sprintf("bias coefficient (%g) must not be negative when using %s", opts.BiasCoef, v),
			}
		}
		return coefficients{BiasCoef: opts.BiasCoef, MainRewardCoef: opts.MainRewardCoef, Regularization: 0}, nil

	case VariantRPPO:
		if reg < negativeTolerance {
			return coefficients{}, &config.ConfigurationError{
				Field:  fmt.Sprintf("zeta-%d", opts.Env.RegularizationIndex()),
				Reason: fmt.Sprintf("regularization coefficient (%g) must not be negative when using %s", reg, v),
			}
		}
		return coefficients{BiasCoef: 0, MainRewardCoef: 1, Regularization: reg}, nil

	default:
		return coefficients{}, &config.ConfigurationError{Field: "algorithm", Reason: fmt.Sprintf("unknown variant %q", v)}
	}
}

// evalShaping derives the evaluation wrapper parameters from the training
// ones. Regularization shaping only steers exploration during training and
// must not leak into the reported metric.
func evalShaping(train ShapingParams, episodes config.EpisodeSettings) ShapingParams {
	eval := train
	eval.Zeta = append([]float64(nil), train.Zeta...)
	eval.Zeta[train.RegularizationIndex] = 0
	eval.EpTimesteps = episodes.EpTimestepsEval
	return eval
}

func envBase(opts config.RawOptions) EnvBaseParams {
	p := EnvBaseParams{Kind: opts.Env, Harder: opts.Harder}
	switch opts.Env {
	case config.EnvLending:
		base := DefaultLendingBase()
		p.Lending = &base
	default:
		p.Attention = &AttentionBase{
			NLocations:      opts.NLocations,
			IncidentRates:   append([]float64(nil), opts.IncidentRates...),
			DynamicRate:     opts.DynamicRate,
			NAttentionUnits: opts.NAttentionUnits,
		}
	}
	return p
}
