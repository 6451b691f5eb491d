package verify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheLookups counts requests by the step that resolved them.
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimradar_cache_lookups_total",
		Help: "Verification requests by resolution (exact, similar, fresh)",
	}, []string{"source"})

	// collaboratorCalls counts delegated verifications by outcome.
	collaboratorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimradar_collaborator_calls_total",
		Help: "Calls to the verification agent by outcome",
	}, []string{"outcome"})

	collaboratorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimradar_collaborator_duration_seconds",
		Help:    "Verification agent latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
	})

	// storeErrors counts store failures by operation and kind.
	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimradar_store_errors_total",
		Help: "Verification store errors by operation and kind",
	}, []string{"operation", "kind"})
)
