package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TriageMetrics exposes counters/histograms for the triage pipeline.
// All methods are nil-safe so callers can run without metrics wired.
type TriageMetrics struct {
	submissionsTotal  *prometheus.CounterVec
	fallbacksTotal    prometheus.Counter
	completionLatency prometheus.Histogram
}

func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "submissions_total",
			Help:      "Total triage submissions by extracted level",
		}, []string{"level"}),
		fallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "fallbacks_total",
			Help:      "Total submissions answered with the safe fallback",
		}),
		completionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "provider",
			Name:      "completion_latency_seconds",
			Help:      "Latency of outbound completion calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.fallbacksTotal, m.completionLatency)
	return m
}

func (m *TriageMetrics) ObserveSubmission(level string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(level).Inc()
}

func (m *TriageMetrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.fallbacksTotal.Inc()
}

func (m *TriageMetrics) ObserveCompletionLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.completionLatency.Observe(d.Seconds())
}
