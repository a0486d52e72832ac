package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks protocol-file verification latency. Verification fetches two
// files from the ledger per call, so this is effectively a remote round-trip
// histogram.
type Metrics struct {
	VerifyDuration prometheus.Histogram
}

// New creates and registers all verification metrics.
func New() *Metrics {
	return &Metrics{
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "provenant_verify_duration_seconds",
			Help:    "Wall time of one protocol-file verification pass.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
