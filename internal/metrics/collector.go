// Package metrics exposes the engine's Prometheus instrumentation. A single
// Collector is shared by the coordinator, the knowledge layer, and the HTTP
// surface; all metric names live under the guardian_ prefix.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_model/go"
)

// Collector holds all Prometheus metrics for the risk engine.
type Collector struct {
	// Per-analyzer call timing and outcome counts
	AnalyzerDuration *prometheus.HistogramVec
	AnalyzerCalls    *prometheus.CounterVec

	// Analysis lifecycle
	AnalysesTotal  prometheus.Counter
	ActiveAnalyses prometheus.Gauge
	RiskLevels     *prometheus.CounterVec

	// Knowledge layer health
	KnowledgeEvents *prometheus.CounterVec

	// Knowledge cache performance
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	CacheHitRatio prometheus.Gauge
}

// New creates a Collector and registers its metrics with reg. A nil reg
// registers with the default Prometheus registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		AnalyzerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardian_analyzer_duration_seconds",
				Help:    "Duration of each analyzer call in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"analyzer", "state"},
		),

		AnalyzerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardian_analyzer_calls_total",
				Help: "Total analyzer calls by analyzer and terminal state",
			},
			[]string{"analyzer", "state"},
		),

		AnalysesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "guardian_analyses_total",
				Help: "Total analysis requests accepted",
			},
		),

		ActiveAnalyses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guardian_active_analyses",
				Help: "Number of analysis requests currently in flight",
			},
		),

		RiskLevels: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardian_risk_levels_total",
				Help: "Completed analyses by overall risk level",
			},
			[]string{"level"},
		),

		KnowledgeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardian_knowledge_events_total",
				Help: "Knowledge store degradation and fallback events",
			},
			[]string{"event"},
		),

		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "guardian_knowledge_cache_hits_total",
				Help: "Total knowledge cache hits",
			},
		),

		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "guardian_knowledge_cache_misses_total",
				Help: "Total knowledge cache misses",
			},
		),

		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guardian_knowledge_cache_hit_ratio",
				Help: "Knowledge cache hit ratio (0.0 to 1.0)",
			},
		),
	}

	reg.MustRegister(
		c.AnalyzerDuration,
		c.AnalyzerCalls,
		c.AnalysesTotal,
		c.ActiveAnalyses,
		c.RiskLevels,
		c.KnowledgeEvents,
		c.CacheHits,
		c.CacheMisses,
		c.CacheHitRatio,
	)

	return c
}

// ObserveAnalyzerCall records one resolved analyzer call.
func (c *Collector) ObserveAnalyzerCall(analyzer, state string, duration time.Duration) {
	c.AnalyzerDuration.WithLabelValues(analyzer, state).Observe(duration.Seconds())
	c.AnalyzerCalls.WithLabelValues(analyzer, state).Inc()
}

// BeginAnalysis marks an analysis request as in flight.
func (c *Collector) BeginAnalysis() {
	c.AnalysesTotal.Inc()
	c.ActiveAnalyses.Inc()
}

// EndAnalysis marks an analysis request as resolved.
func (c *Collector) EndAnalysis() {
	c.ActiveAnalyses.Dec()
}

// RecordRiskLevel counts one completed analysis by its overall risk level.
func (c *Collector) RecordRiskLevel(level string) {
	c.RiskLevels.WithLabelValues(level).Inc()
}

// KnowledgeEvent routes knowledge layer callback events to the right metric.
// It satisfies the callback shape the knowledge stores expect, so it can be
// passed directly to SetMetricsCallback.
func (c *Collector) KnowledgeEvent(event string) {
	switch event {
	case "cache_hit":
		c.CacheHits.Inc()
		c.updateCacheHitRatio()
	case "cache_miss":
		c.CacheMisses.Inc()
		c.updateCacheHitRatio()
	default:
		c.KnowledgeEvents.WithLabelValues(event).Inc()
	}
}

// updateCacheHitRatio recomputes the hit ratio gauge from the raw counters.
func (c *Collector) updateCacheHitRatio() {
	var hitMetric, missMetric io_prometheus_client.Metric

	if err := c.CacheHits.Write(&hitMetric); err != nil {
		return
	}
	if err := c.CacheMisses.Write(&missMetric); err != nil {
		return
	}

	hits := hitMetric.GetCounter().GetValue()
	misses := missMetric.GetCounter().GetValue()
	if total := hits + misses; total > 0 {
		c.CacheHitRatio.Set(hits / total)
	}
}
