package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query paths reported by feedback_queries_total.
const (
	pathNative   = "native"
	pathComputed = "computed"
)

// Metrics holds the feedback domain collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	submitted      prometheus.Counter
	queries        *prometheus.CounterVec
	rollupDuration prometheus.Histogram
}

// NewMetrics creates the domain collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedback_submitted_total",
			Help: "Total number of feedback records submitted",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_queries_total",
			Help: "Feedback listings served, by execution path",
		}, []string{"path"}),
		rollupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedback_rollup_duration_seconds",
			Help:    "Duration of statistics rollups in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.submitted, m.queries, m.rollupDuration)
	return m
}

func (m *Metrics) feedbackSubmitted() {
	if m != nil {
		m.submitted.Inc()
	}
}

func (m *Metrics) queryServed(path string) {
	if m != nil {
		m.queries.WithLabelValues(path).Inc()
	}
}

func (m *Metrics) rollupFinished(start time.Time) {
	if m != nil {
		m.rollupDuration.Observe(time.Since(start).Seconds())
	}
}
