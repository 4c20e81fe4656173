package gasoptd

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
)

// Namespace prefixes every metric the daemon exports
const Namespace = "gasopt"

// Metrics are the daemon's Prometheus instruments. A nil *Metrics records nothing.
type Metrics struct {
	Optimizer *evolution.Metrics

	activeRuns   prometheus.Gauge
	finishedRuns *prometheus.CounterVec
}

// NewMetrics registers the daemon and optimizer instruments on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	opt, err := evolution.NewMetrics(Namespace, reg)
	if err != nil {
		return nil, err
	}
	m := &Metrics{
		Optimizer: opt,
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "daemon",
			Name:      "active_runs",
			Help:      "Number of runs currently executing",
		}),
		finishedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "daemon",
			Name:      "finished_runs_total",
			Help:      "Number of runs that reached a terminal status",
		}, []string{"status"}),
	}
	if err := errors.Join(reg.Register(m.activeRuns), reg.Register(m.finishedRuns)); err != nil {
		return nil, err
	}
	return m, nil
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus the daemon instruments
func NewRegistry() (*prometheus.Registry, *Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := errors.Join(
		reg.Register(collectors.NewGoCollector()),
		reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
	); err != nil {
		return nil, nil, err
	}
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, m, nil
}

func (m *Metrics) optimizer() *evolution.Metrics {
	if m == nil {
		return nil
	}
	return m.Optimizer
}

func (m *Metrics) runStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

func (m *Metrics) runFinished(status RunStatus) {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
	m.finishedRuns.WithLabelValues(string(status)).Inc()
}
