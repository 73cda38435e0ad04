package resolver

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for the resolution pipeline. Each
// Metrics owns a private registry so tests and embedded uses never collide
// on registration.
type Metrics struct {
	registry *prometheus.Registry

	ResolutionsTotal *prometheus.CounterVec
	ResolutionMisses prometheus.Counter
	TierErrors       *prometheus.CounterVec
	TierLatency      *prometheus.HistogramVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	IndexSize        prometheus.Gauge
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamresolve_resolutions_total",
				Help: "Successful resolutions by producing tier and confidence",
			},
			[]string{"source", "confidence"},
		),
		ResolutionMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "teamresolve_resolution_misses_total",
				Help: "Resolutions where every tier came up empty",
			},
		),
		TierErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamresolve_tier_errors_total",
				Help: "Tier-local failures absorbed as misses",
			},
			[]string{"tier"},
		),
		TierLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teamresolve_tier_latency_seconds",
				Help:    "Per-tier lookup latency",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"tier"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "teamresolve_cache_hits_total",
				Help: "Resolutions served from the resolution cache",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "teamresolve_cache_misses_total",
				Help: "Resolutions that had to run the tier pipeline",
			},
		),
		IndexSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "teamresolve_fuzzy_index_teams",
				Help: "Teams currently held by the in-memory fuzzy index",
			},
		),
	}

	m.registry.MustRegister(
		m.ResolutionsTotal,
		m.ResolutionMisses,
		m.TierErrors,
		m.TierLatency,
		m.CacheHits,
		m.CacheMisses,
		m.IndexSize,
	)
	return m
}

// Registry returns the prometheus registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordResolution records a successful resolution.
func (m *Metrics) RecordResolution(src Source, conf Confidence) {
	m.ResolutionsTotal.WithLabelValues(string(src), string(conf)).Inc()
}

// RecordMiss records a full pipeline miss.
func (m *Metrics) RecordMiss() {
	m.ResolutionMisses.Inc()
}

// RecordTierError records an absorbed tier failure.
func (m *Metrics) RecordTierError(tier string) {
	m.TierErrors.WithLabelValues(tier).Inc()
}

// RecordTierLatency records one tier lookup's duration.
func (m *Metrics) RecordTierLatency(tier string, seconds float64) {
	m.TierLatency.WithLabelValues(tier).Observe(seconds)
}

// Global instance for convenience
var (
	defaultMetrics *Metrics
	once           sync.Once
)

// DefaultMetrics returns the shared global metrics instance.
func DefaultMetrics() *Metrics {
	once.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}
