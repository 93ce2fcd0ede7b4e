package variant

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/brianbland/fairrl/pkg/config"
)

// MitigationParams parameterizes the primary method's objective:
// main_reward_coef * return - bias_coef * bias^2
type MitigationParams struct {
	BiasCoef       float64 `json:"bias_coef"`
	BetaSmooth     float64 `json:"beta_smooth"`
	MainRewardCoef float64 `json:"main_reward_coef"`
}

// BaselineParams parameterizes the baseline algorithms
type BaselineParams struct {
	Method    Variant `json:"method"`
	APPO      bool    `json:"APPO"`
	OmegaAPPO float64 `json:"OMEGA_APPO"`
	Beta0APPO float64 `json:"BETA_0_APPO"`
	Beta1APPO float64 `json:"BETA_1_APPO"`
	Beta2APPO float64 `json:"BETA_2_APPO"`
}

// AttentionBase sizes the attention allocation simulator
type AttentionBase struct {
	NLocations      int       `json:"N_LOCATIONS"`
	IncidentRates   []float64 `json:"INCIDENT_RATES"`
	DynamicRate     float64   `json:"DYNAMIC_RATE"`
	NAttentionUnits int       `json:"N_ATTENTION_UNITS"`
}

// LendingBase parameterizes the delayed-impact lending simulator
type LendingBase struct {
	ClusterProbabilities  [][]float64 `json:"CLUSTER_PROBABILITIES"`
	Group0Prob            float64     `json:"GROUP_0_PROB"`
	BankStartingCash      float64     `json:"BANK_STARTING_CASH"`
	InterestRate          float64     `json:"INTEREST_RATE"`
	ClusterShiftIncrement float64     `json:"CLUSTER_SHIFT_INCREMENT"`
}

// DefaultLendingBase returns the standard two-group credit cluster setup
func DefaultLendingBase() LendingBase {
	return LendingBase{
		ClusterProbabilities: [][]float64{
			{0.0, 0.1, 0.1, 0.2, 0.3, 0.3, 0.0},
			{0.1, 0.1, 0.2, 0.3, 0.3, 0.0, 0.0},
		},
		Group0Prob:            0.5,
		BankStartingCash:      10000,
		InterestRate:          1,
		ClusterShiftIncrement: 0.01,
	}
}

// EnvBaseParams holds the base environment parameters of either kind.
// Exactly one of Attention and Lending is set, matching Kind.
type EnvBaseParams struct {
	Kind      config.EnvKind
	Harder    bool
	Attention *AttentionBase
	Lending   *LendingBase
}

func (p EnvBaseParams) flagName() string {
	if p.Kind == config.EnvLending {
		return "modifedEnv"
	}
	return "harderEnv"
}

// MarshalJSON writes the flag first, then the kind's fields
func (p EnvBaseParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	flag, err := json.Marshal(p.Harder)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "{%q:%s", p.flagName(), flag)

	var body any
	switch {
	case p.Attention != nil:
		body = p.Attention
	case p.Lending != nil:
		body = p.Lending
	}
	if body != nil {
		fields, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		if inner := bytes.TrimSuffix(bytes.TrimPrefix(fields, []byte("{")), []byte("}")); len(inner) > 0 {
			buf.WriteByte(',')
			buf.Write(inner)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Recorded returns what the manifest stores for the base environment: the
// full parameters, or only the flag when a pre-built harder variant is used.
func (p EnvBaseParams) Recorded() EnvBaseParams {
	if !p.Harder {
		return p
	}
	return EnvBaseParams{Kind: p.Kind, Harder: true}
}

// ShapingParams parameterizes the reward-shaping environment wrapper
type ShapingParams struct {
	IncludeDelta        bool
	Zeta                []float64
	RegularizationIndex int
	EpTimesteps         int
}

// RegularizationCoef returns the weight of the fairness regularization term
func (p ShapingParams) RegularizationCoef() float64 {
	if p.RegularizationIndex < 0 || p.RegularizationIndex >= len(p.Zeta) {
		return 0
	}
	return p.Zeta[p.RegularizationIndex]
}

// MarshalJSON writes include_delta, zeta_0..zeta_n, ep_timesteps in order
func (p ShapingParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"include_delta":%t`, p.IncludeDelta)
	for i, z := range p.Zeta {
		v, err := json.Marshal(z)
		if err != nil {
			return nil, fmt.Errorf("zeta_%d: %w", i, err)
		}
		fmt.Fprintf(&buf, `,"zeta_%d":%s`, i, v)
	}
	fmt.Fprintf(&buf, `,"ep_timesteps":%d}`, p.EpTimesteps)
	return buf.Bytes(), nil
}

// TrainingParams parameterizes the optimizer
type TrainingParams struct {
	LR                 float64 `json:"lr"`
	TrainTimesteps     int     `json:"train_timesteps"`
	BufferSizeTraining int     `json:"buffer_size_training"`
	Seed               int64   `json:"seed"`
	Gamma              float64 `json:"gamma"`
	ClipRange          float64 `json:"clip_range"`
}

// EvalParams is the serializable part of the evaluation configuration
type EvalParams struct {
	EvalWritePath string `json:"eval_write_path"`
	EvalInterval  int    `json:"eval_interval"`
	NumEpsEval    int    `json:"num_eps_eval"`
}

// Groups is the reconciled, immutable parameter set of one run
type Groups struct {
	Variant      Variant
	Mitigation   MitigationParams
	Baselines    BaselineParams
	EnvBase      EnvBaseParams
	ShapingTrain ShapingParams
	ShapingEval  ShapingParams
	Training     TrainingParams
}
