package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache metrics
var (
	// CacheLookupsTotal tracks cache lookups by outcome: hit, miss, expired, corrupt
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_lookups_total",
			Help: "Total number of weather cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// CacheCleanupDeletionsTotal tracks entries removed per cleanup policy
	CacheCleanupDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_cleanup_deletions_total",
			Help: "Total number of cache entries deleted, by cleanup policy",
		},
		[]string{"policy"},
	)

	// CacheCleanupRunsTotal tracks composite cleanup sweeps
	CacheCleanupRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_cache_cleanup_runs_total",
			Help: "Total number of composite cache cleanup sweeps",
		},
	)
)

// Upstream source metrics
var (
	// SourceFetchesTotal tracks provider fetches by source and status
	SourceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_source_fetches_total",
			Help: "Total number of upstream weather source fetches by source and status",
		},
		[]string{"source", "status"},
	)
)

// RecordCacheLookup records a single-key cache lookup outcome.
func RecordCacheLookup(outcome string) {
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordCleanup records one composite sweep's per-policy deletion counts.
func RecordCleanup(expired, oldDate, sizeLimit int) {
	CacheCleanupRunsTotal.Inc()
	CacheCleanupDeletionsTotal.WithLabelValues("expired").Add(float64(expired))
	CacheCleanupDeletionsTotal.WithLabelValues("old_date").Add(float64(oldDate))
	CacheCleanupDeletionsTotal.WithLabelValues("size_limit").Add(float64(sizeLimit))
}

// RecordSourceFetch records one upstream fetch attempt.
func RecordSourceFetch(source string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SourceFetchesTotal.WithLabelValues(source, status).Inc()
}
