package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// resolve path and its upstream adapters.
type Metrics struct {
	ResolveRequests *prometheus.CounterVec // labels: outcome={hit,computed,degraded,stale_fallback,failed}
	ResolveDuration prometheus.Histogram

	// Request coalescing and cache behavior.
	FlightsCollapsed prometheus.Counter
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss,stale}
	CacheWrites      prometheus.Counter

	// Upstream adapter calls.
	UpstreamRequests *prometheus.CounterVec   // labels: source={geocoding,weather,statistics,risk-oracle,neighbors}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: source

	// Statistics generator fallbacks (malformed output after retry).
	GeneratorFallbacks prometheus.Counter

	// Optional Kafka publishing.
	AssessmentsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ResolveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_risk",
			Name:      "resolve_requests_total",
			Help:      "Resolve requests by outcome.",
		}, []string{"outcome"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "burn_risk",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of a full resolve, cache hits included.",
			Buckets:   []float64{0.005, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FlightsCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "burn_risk",
			Name:      "flights_collapsed_total",
			Help:      "Resolve calls that attached to an in-flight computation for the same cell.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_risk",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		CacheWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "burn_risk",
			Name:      "cache_writes_total",
			Help:      "Completed computations persisted to the cache.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_risk",
			Name:      "upstream_requests_total",
			Help:      "Upstream adapter calls by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "burn_risk",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream adapter call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		GeneratorFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "burn_risk",
			Name:      "generator_fallbacks_total",
			Help:      "Assessments replaced by the neutral fallback after a failed retry.",
		}),
		AssessmentsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_risk",
			Name:      "assessments_published_total",
			Help:      "Assessment records published to Kafka by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.ResolveRequests,
		m.ResolveDuration,
		m.FlightsCollapsed,
		m.CacheLookups,
		m.CacheWrites,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.GeneratorFallbacks,
		m.AssessmentsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ResolveRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burn_risk", Name: "resolve_requests_total"}, []string{"outcome"}),
		ResolveDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "burn_risk", Name: "resolve_duration_seconds"}),
		FlightsCollapsed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "burn_risk", Name: "flights_collapsed_total"}),
		CacheLookups:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burn_risk", Name: "cache_lookups_total"}, []string{"result"}),
		CacheWrites:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "burn_risk", Name: "cache_writes_total"}),
		UpstreamRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burn_risk", Name: "upstream_requests_total"}, []string{"source", "outcome"}),
		UpstreamDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "burn_risk", Name: "upstream_duration_seconds"}, []string{"source"}),
		GeneratorFallbacks:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "burn_risk", Name: "generator_fallbacks_total"}),
		AssessmentsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "burn_risk", Name: "assessments_published_total"}, []string{"outcome"}),
	}
}
