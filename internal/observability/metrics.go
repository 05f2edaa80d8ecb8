package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source fetch outcomes used as the "outcome" label.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeCacheHit = "cache_hit"
)

// Metrics contains all Prometheus metrics for the paper discovery service,
// grouped by subsystem: searches, sources, cache and LLM. All metrics are
// registered with the default registry via promauto.
//
// A nil *Metrics is valid; every Record method is then a no-op.
type Metrics struct {
	// SearchesTotal counts aggregated searches.
	SearchesTotal prometheus.Counter

	// SearchDuration observes end-to-end aggregation time in seconds.
	SearchDuration prometheus.Histogram

	// PapersPerSearch observes the merged paper count per search.
	PapersPerSearch prometheus.Histogram

	// DuplicatesRemoved counts records dropped by title deduplication.
	DuplicatesRemoved prometheus.Counter

	// SourceFetches counts adapter fetches, labeled by source and outcome.
	SourceFetches *prometheus.CounterVec

	// SourceFetchDuration observes adapter fetch time in seconds, labeled by source.
	SourceFetchDuration *prometheus.HistogramVec

	// PapersBySource counts records returned, labeled by source.
	PapersBySource *prometheus.CounterVec

	// SourceEntriesSkipped counts provider entries that could not be mapped, labeled by source.
	SourceEntriesSkipped *prometheus.CounterVec

	// SourceRateLimited counts 429 responses, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// CacheHits counts fresh cache reads, labeled by source.
	CacheHits *prometheus.CounterVec

	// CacheMisses counts cache reads that found nothing fresh, labeled by source.
	CacheMisses *prometheus.CounterVec

	// CacheEvictions counts stale entries removed on read, labeled by source.
	CacheEvictions *prometheus.CounterVec

	// LLMRequestsTotal counts LLM requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM requests, labeled by operation, model and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM request time in seconds, labeled by operation and model.
	LLMRequestDuration *prometheus.HistogramVec

	// HTTPRequestsTotal counts API requests, labeled by method, route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes API request time in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Searches
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of aggregated searches",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of aggregated searches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}),
		PapersPerSearch: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of merged papers returned per search",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500},
		}),
		DuplicatesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Total number of records removed by title deduplication",
		}),

		// Sources
		SourceFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Total number of source fetches by outcome",
		}, []string{"source", "outcome"}),
		SourceFetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of source fetches in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 12},
		}, []string{"source"}),
		PapersBySource: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_by_source_total",
			Help:      "Total number of papers returned by source",
		}, []string{"source"}),
		SourceEntriesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_entries_skipped_total",
			Help:      "Total number of malformed provider entries skipped",
		}, []string{"source"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limited responses by source",
		}, []string{"source"}),

		// Cache
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of fresh cache reads",
		}, []string{"source"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}, []string{"source"}),
		CacheEvictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of stale cache entries evicted on read",
		}, []string{"source"}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation", "model"}),

		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordSearch records a completed aggregation.
func (m *Metrics) RecordSearch(durationSeconds float64, paperCount, duplicates int) {
	if m == nil {
		return
	}
	m.SearchesTotal.Inc()
	m.SearchDuration.Observe(durationSeconds)
	m.PapersPerSearch.Observe(float64(paperCount))
	m.DuplicatesRemoved.Add(float64(duplicates))
}

// RecordSourceFetch records one adapter fetch and its outcome.
func (m *Metrics) RecordSourceFetch(source, outcome string, durationSeconds float64, paperCount int) {
	if m == nil {
		return
	}
	m.SourceFetches.WithLabelValues(source, outcome).Inc()
	m.SourceFetchDuration.WithLabelValues(source).Observe(durationSeconds)
	if paperCount > 0 {
		m.PapersBySource.WithLabelValues(source).Add(float64(paperCount))
	}
}

// RecordSourceOutcome counts an outcome decided outside the adapter, such
// as an aggregator timeout.
func (m *Metrics) RecordSourceOutcome(source, outcome string) {
	if m == nil {
		return
	}
	m.SourceFetches.WithLabelValues(source, outcome).Inc()
}

// RecordEntriesSkipped records malformed provider entries.
func (m *Metrics) RecordEntriesSkipped(source string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.SourceEntriesSkipped.WithLabelValues(source).Add(float64(count))
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	if m == nil {
		return
	}
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordCacheHit records a fresh cache read.
func (m *Metrics) RecordCacheHit(source string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(source).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(source string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(source).Inc()
}

// RecordCacheEviction records a stale entry removed on read.
func (m *Metrics) RecordCacheEviction(source string) {
	if m == nil {
		return
	}
	m.CacheEvictions.WithLabelValues(source).Inc()
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	if m == nil {
		return
	}
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}

// RecordHTTPRequest records one served API request. route is the matched
// route pattern, not the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
