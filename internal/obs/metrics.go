package obs

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine-wide Prometheus instrumentation, shared by
// every collection opened through a Client.
type Metrics struct {
	VectorInserts  prometheus.Counter
	VectorDeletes  prometheus.Counter
	SearchQueries  prometheus.Counter
	SearchErrors   prometheus.Counter
	SearchLatency  prometheus.Histogram
	Rebuilds       prometheus.Counter
	RebuildFailed  prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
}

// NewMetrics registers and returns a fresh Metrics instance. Callers
// that construct more than one Client in the same process (tests,
// mainly) should use a private prometheus.Registry rather than the
// default one to avoid duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VectorInserts: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_vector_inserts_total",
			Help: "Total vector insertions across all collections",
		}),
		VectorDeletes: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_vector_deletes_total",
			Help: "Total vector deletions across all collections",
		}),
		SearchQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_search_queries_total",
			Help: "Total query operations",
		}),
		SearchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_search_errors_total",
			Help: "Total query operations that returned an error",
		}),
		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "vectordb_search_latency_seconds",
			Help: "Query latency in seconds",
		}),
		Rebuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_rebuilds_total",
			Help: "Total successful IVF rebuilds",
		}),
		RebuildFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_rebuild_failures_total",
			Help: "Total IVF rebuilds that degraded to linear scan",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_cache_hits_total",
			Help: "Client cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_cache_misses_total",
			Help: "Client cache misses requiring hydration or creation",
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_cache_evictions_total",
			Help: "Collections evicted from the client LRU cache",
		}),
	}
}

// Logger is the ambient structured logger used for the warnings the
// core is required to emit without propagating an error, e.g. a
// RebuildFailed degrading a query to linear scan.
var Logger = slog.Default()
