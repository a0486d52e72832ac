package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks cache and reconciliation behavior. The interesting signal in
// production is the ratio of coalesced requests to outbound fetches: the UI
// polls from several components at once and coalescing is what keeps that
// from multiplying network calls.
type Metrics struct {
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	Coalesced     *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	Fallbacks     *prometheus.CounterVec
}

// New creates and registers all reconciliation metrics.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenant_cache_hits_total",
			Help: "Bulk query results served from the TTL cache.",
		}, []string{"query"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenant_cache_misses_total",
			Help: "Bulk queries that had no fresh cache entry.",
		}, []string{"query"}),
		Coalesced: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenant_coalesced_requests_total",
			Help: "Bulk queries that joined an already in-flight fetch.",
		}, []string{"query"}),
		FetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenant_ledger_fetch_failures_total",
			Help: "Remote ledger fetches that failed or were skipped as unavailable.",
		}, []string{"query"}),
		Fallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenant_fallbacks_total",
			Help: "Bulk queries answered from a fallback source.",
		}, []string{"query", "source"}),
	}
}
