// Package metrics exposes Prometheus counters for analyses, simulations and
// insight generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "balancify"

// Metrics holds the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	analyses        prometheus.Counter
	simulations     prometheus.Counter
	insightResults  *prometheus.CounterVec
	insightDuration prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		analyses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Questionnaire analyses computed.",
		}),
		simulations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "What-if simulations computed.",
		}),
		insightResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_results_total",
			Help:      "Insight generations by source and fallback reason.",
		}, []string{"source", "reason"}),
		insightDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "insight_duration_seconds",
			Help:      "Time spent waiting for the insight provider.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
	}
}

// AnalysisComputed counts one completed analysis.
func (m *Metrics) AnalysisComputed() {
	if m == nil {
		return
	}
	m.analyses.Inc()
}

// SimulationComputed counts one completed simulation.
func (m *Metrics) SimulationComputed() {
	if m == nil {
		return
	}
	m.simulations.Inc()
}

// InsightObserved records one guarded insight call. reason is empty when the
// provider answered in full.
func (m *Metrics) InsightObserved(source, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.insightResults.WithLabelValues(source, reason).Inc()
	m.insightDuration.Observe(elapsed.Seconds())
}
