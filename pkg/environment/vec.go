package environment

// StepResult is the outcome of one vectorized step. Observation is the
// observation to act on next: the first one of a new episode when the
// step ended an episode.
type StepResult struct {
	Transition
	Observation []float64
}

// VecEnv drives a single environment through the auto-resetting
// interface the trainer consumes
type VecEnv struct {
	Env Env
	Obs []float64
}

// NewVecEnv wraps env; call Reset before the first Step
func NewVecEnv(env Env) *VecEnv {
	return &VecEnv{Env: env}
}

// Reset starts a new episode
func (v *VecEnv) Reset() []float64 {
	v.Obs = v.Env.Reset()
	return v.Obs
}

// Step applies action and resets the environment when the episode ends
func (v *VecEnv) Step(action Action) (StepResult, error) {
	if v.Obs == nil {
		v.Reset()
	}
	t, err := v.Env.Step(action)
	if err != nil {
		return StepResult{}, err
	}
	next := t.Observation
	if t.Done {
		next = v.Env.Reset()
	}
	v.Obs = next
	return StepResult{Transition: t, Observation: next}, nil
}

// Monitor returns the episode monitor inside the wrapper chain, if any
func (v *VecEnv) Monitor() *Monitor {
	m, _ := v.Env.(*Monitor)
	return m
}

func (v *VecEnv) ObservationSize() int { return v.Env.ObservationSize() }

func (v *VecEnv) ActionSpec() ActionSpec { return v.Env.ActionSpec() }

func (v *VecEnv) NumGroups() int { return v.Env.NumGroups() }
