package manager

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the manager's operational counters.
type Metrics struct {
	ActiveRuns      prometheus.Gauge
	QueuedRuns      prometheus.Gauge
	RunsFinished    *prometheus.CounterVec
	EventsGenerated prometheus.Counter
}

// NewMetrics builds and registers the manager metric set. A nil registerer
// leaves the metrics unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hockeysim",
			Name:      "active_runs",
			Help:      "Number of runs currently holding a concurrency slot.",
		}),
		QueuedRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hockeysim",
			Name:      "queued_runs",
			Help:      "Number of admitted runs waiting for a slot.",
		}),
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hockeysim",
			Name:      "runs_finished_total",
			Help:      "Finished runs by terminal status.",
		}, []string{"status"}),
		EventsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hockeysim",
			Name:      "events_generated_total",
			Help:      "Total events generated across all runs.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ActiveRuns, m.QueuedRuns, m.RunsFinished, m.EventsGenerated)
	}
	return m
}
