package trainer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/brianbland/fairrl/pkg/variant"
)

// Metrics holds the Prometheus metrics of one training run. Each run uses
// its own registry so metrics are flushed to the experiment directory
// instead of being served.
//
// Metrics:
//   - fairrl_train_steps_total - environment steps taken while training
//   - fairrl_train_episodes_total - finished training episodes
//   - fairrl_train_updates_total - policy updates
//   - fairrl_eval_return - mean return of the last evaluation
//   - fairrl_eval_bias - mean bias of the last evaluation
//   - fairrl_eval_rate{group} - per-group benefit rate of the last evaluation
type Metrics struct {
	Registry *prometheus.Registry

	Steps    prometheus.Counter
	Episodes prometheus.Counter
	Updates  prometheus.Counter

	EvalReturn prometheus.Gauge
	EvalBias   prometheus.Gauge
	EvalRate   *prometheus.GaugeVec
}

// NewMetrics creates the metrics of a run of variant v
func NewMetrics(v variant.Variant) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := prometheus.Labels{"variant": string(v)}

	return &Metrics{
		Registry: registry,
		Steps: factory.NewCounter(prometheus.CounterOpts{
			Name:        "fairrl_train_steps_total",
			Help:        "Total number of environment steps taken while training",
			ConstLabels: labels,
		}),
		Episodes: factory.NewCounter(prometheus.CounterOpts{
			Name:        "fairrl_train_episodes_total",
			Help:        "Total number of finished training episodes",
			ConstLabels: labels,
		}),
		Updates: factory.NewCounter(prometheus.CounterOpts{
			Name:        "fairrl_train_updates_total",
			Help:        "Total number of policy updates",
			ConstLabels: labels,
		}),
		EvalReturn: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "fairrl_eval_return",
			Help:        "Mean episode return of the last evaluation",
			ConstLabels: labels,
		}),
		EvalBias: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "fairrl_eval_bias",
			Help:        "Mean benefit rate gap of the last evaluation",
			ConstLabels: labels,
		}),
		EvalRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "fairrl_eval_rate",
			Help:        "Per-group benefit rate of the last evaluation",
			ConstLabels: labels,
		}, []string{"group"}),
	}
}

// WriteTextfile writes the current metric values in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
