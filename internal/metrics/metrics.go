// Package metrics provides Prometheus metrics for the news service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "cache_lookups_total",
			Help:      "Total number of cache lookups",
		},
		[]string{"result"},
	)

	// CacheWriteErrors counts failed cache writes.
	CacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "cache_write_errors_total",
			Help:      "Total number of failed cache writes",
		},
	)

	// UpstreamRequests counts provider calls by mode and outcome.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "upstream_requests_total",
			Help:      "Total number of NewsAPI requests",
		},
		[]string{"mode", "outcome"},
	)

	// UpstreamDuration measures provider call latency.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "upstream_duration_seconds",
			Help:      "Duration of NewsAPI requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// Fallbacks counts fallback queries by outcome.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "fallback_total",
			Help:      "Total number of fallback queries issued",
		},
		[]string{"outcome"},
	)

	// RemovedArticles counts tombstoned articles dropped during normalization.
	RemovedArticles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "removed_articles_total",
			Help:      "Total number of tombstoned articles dropped",
		},
	)
)
