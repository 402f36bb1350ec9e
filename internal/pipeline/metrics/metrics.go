package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus metrics.
type Metrics struct {
	EvaluationsTotal prometheus.Counter
	TransitionsTotal prometheus.Counter
	MovesTotal       *prometheus.CounterVec
	EvaluateDuration prometheus.Histogram
	RuleCacheHits    prometheus.Counter
	RuleCacheMisses  prometheus.Counter
}

// New creates and registers the pipeline metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "launchpad_pipeline_evaluations_total",
			Help: "Startup profile evaluations run by the transition engine.",
		}),
		TransitionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "launchpad_pipeline_transitions_total",
			Help: "Automatic stage transitions applied by the engine.",
		}),
		MovesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_pipeline_card_moves_total",
			Help: "Card moves through the position ledger by origin.",
		}, []string{"origin"}),
		EvaluateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "launchpad_pipeline_evaluate_duration_seconds",
			Help:    "Duration of full startup evaluations.",
			Buckets: prometheus.DefBuckets,
		}),
		RuleCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "launchpad_pipeline_rule_cache_hits_total",
			Help: "Rule reads served from the Redis cache.",
		}),
		RuleCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "launchpad_pipeline_rule_cache_misses_total",
			Help: "Rule reads that fell through to the store.",
		}),
	}
}

// RecordMove counts one ledger move; origin is "manual" or "automatic".
func (m *Metrics) RecordMove(origin string) {
	if m == nil {
		return
	}
	m.MovesTotal.WithLabelValues(origin).Inc()
}

func (m *Metrics) RecordEvaluation(seconds float64, transitions int) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.Inc()
	m.EvaluateDuration.Observe(seconds)
	m.TransitionsTotal.Add(float64(transitions))
}

func (m *Metrics) RecordRuleCacheHit() {
	if m == nil {
		return
	}
	m.RuleCacheHits.Inc()
}

func (m *Metrics) RecordRuleCacheMiss() {
	if m == nil {
		return
	}
	m.RuleCacheMisses.Inc()
}
