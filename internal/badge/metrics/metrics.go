package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the badge module.
type Metrics struct {
	// Operation outcomes by operation and result
	OperationOutcome *prometheus.CounterVec

	// Badges minted per batch request
	BatchSize prometheus.Histogram

	// Currently active (minted and not burned) badges
	ActiveBadges prometheus.Gauge

	// Metadata cache hits and misses
	CacheLookups *prometheus.CounterVec
}

// New creates a new Metrics instance with all badge module metrics registered.
func New() *Metrics {
	return &Metrics{
		OperationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crest_badge_operations_total",
			Help: "Total badge operations by operation and result",
		}, []string{"operation", "result"}), // operation: "mint", "batch_mint", "transfer", "update_uri", "burn", "burn_expired"

		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crest_badge_batch_mint_size",
			Help:    "Number of badges minted per batch request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),

		ActiveBadges: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "crest_badge_active",
			Help: "Number of badges currently minted and not burned",
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crest_badge_cache_lookups_total",
			Help: "Metadata cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"
	}
}

// IncrementOutcome records the result of a badge operation.
func (m *Metrics) IncrementOutcome(operation, result string) {
	if m != nil {
		m.OperationOutcome.WithLabelValues(operation, result).Inc()
	}
}

// ObserveBatchSize records how many badges a batch request minted.
func (m *Metrics) ObserveBatchSize(n int) {
	if m != nil {
		m.BatchSize.Observe(float64(n))
	}
}

// SetActiveBadges records the current number of active badges.
func (m *Metrics) SetActiveBadges(n uint64) {
	if m != nil {
		m.ActiveBadges.Set(float64(n))
	}
}

// IncrementCacheLookup records a metadata cache hit or miss.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
