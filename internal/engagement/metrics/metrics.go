package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the engagement module.
type Metrics struct {
	// Source resolution latencies during composition, by source
	SourceLatency *prometheus.HistogramVec

	// Record operations by kind and outcome
	RecordOps *prometheus.CounterVec

	// Overall composition latency
	ComposeLatency prometheus.Histogram

	// Measurement association outcomes
	Associations *prometheus.CounterVec

	// Summary cache hits and misses
	SummaryCache *prometheus.CounterVec
}

// New creates a Metrics instance with all engagement module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		SourceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rangelog_engagement_source_duration_seconds",
			Help:    "Duration of source resolution during record composition",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "session", "load", "firearm", "location", "environment"

		RecordOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rangelog_engagement_record_ops_total",
			Help: "Total engagement record operations by kind and outcome",
		}, []string{"op", "outcome"}),

		ComposeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangelog_engagement_compose_duration_seconds",
			Help:    "Duration of full record composition including source resolution",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		Associations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rangelog_engagement_associations_total",
			Help: "Total measurement association attempts by outcome",
		}, []string{"outcome"}), // outcome: "matched", "unmatched", "already"

		SummaryCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rangelog_engagement_summary_cache_total",
			Help: "Summary cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"
	}
}

// ObserveSourceLatency records the duration of resolving one source.
func (m *Metrics) ObserveSourceLatency(source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementRecordOp records a record operation outcome.
func (m *Metrics) IncrementRecordOp(op, outcome string) {
	if m != nil {
		m.RecordOps.WithLabelValues(op, outcome).Inc()
	}
}

// ObserveComposeLatency records the total composition duration.
func (m *Metrics) ObserveComposeLatency(d time.Duration) {
	if m != nil {
		m.ComposeLatency.Observe(d.Seconds())
	}
}

// IncrementAssociation records one association attempt outcome.
func (m *Metrics) IncrementAssociation(outcome string) {
	if m != nil {
		m.Associations.WithLabelValues(outcome).Inc()
	}
}

// IncrementSummaryCache records a summary cache lookup result.
func (m *Metrics) IncrementSummaryCache(result string) {
	if m != nil {
		m.SummaryCache.WithLabelValues(result).Inc()
	}
}
