package evolution

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus instruments shared by optimizer runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	generations prometheus.Counter
	evaluations *prometheus.CounterVec
	runs        *prometheus.CounterVec
	bestCost    prometheus.Gauge
	runDuration prometheus.Histogram
}

// NewMetrics creates the optimizer instruments and registers them on reg
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Number of generations evolved across all runs",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Number of candidate evaluations by outcome",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of finished optimizer runs by stop condition",
		}, []string{"stop"}),
		bestCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_best_cost",
			Help:      "Best cost reported by the most recently observed generation",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of optimizer runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	err := errors.Join(
		reg.Register(m.generations),
		reg.Register(m.evaluations),
		reg.Register(m.runs),
		reg.Register(m.bestCost),
		reg.Register(m.runDuration),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observeEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeGeneration(stats GenerationStats) {
	if m == nil {
		return
	}
	if stats.Generation > 0 {
		m.generations.Inc()
	}
	m.bestCost.Set(stats.BestSoFar)
}

func (m *Metrics) observeRun(stop string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(stop).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}
