package environment

import (
	"github.com/brianbland/fairrl/pkg/config"
)

// Episode summarizes one finished episode
type Episode struct {
	Return     float64 // shaped return
	MainReturn float64
	Length     int
	Bias       float64 // benefit rate gap at the end of the episode
}

// Monitor records the statistics of every finished episode
type Monitor struct {
	Env Env

	Current  Episode
	Finished []Episode
}

// NewMonitor wraps env with episode bookkeeping
func NewMonitor(env Env) *Monitor {
	return &Monitor{Env: env}
}

func (m *Monitor) Kind() config.EnvKind { return m.Env.Kind() }

func (m *Monitor) Reset() []float64 {
	m.Current = Episode{}
	return m.Env.Reset()
}

func (m *Monitor) Seed(seed int64) { m.Env.Seed(seed) }

func (m *Monitor) Step(action Action) (Transition, error) {
	t, err := m.Env.Step(action)
	if err != nil {
		return Transition{}, err
	}
	m.Current.Return += t.Reward
	m.Current.MainReturn += t.MainReward
	m.Current.Length++
	m.Current.Bias = t.Bias
	if t.Done {
		m.Finished = append(m.Finished, m.Current)
		m.Current = Episode{}
	}
	return t, nil
}

// Episodes returns every finished episode in order
func (m *Monitor) Episodes() []Episode {
	return m.Finished
}

func (m *Monitor) ObservationSize() int { return m.Env.ObservationSize() }

func (m *Monitor) ActionSpec() ActionSpec { return m.Env.ActionSpec() }

func (m *Monitor) NumGroups() int { return m.Env.NumGroups() }
