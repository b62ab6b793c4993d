package alloc

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// poolAllocs tracks Allocate() calls served from free lists.
	poolAllocs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolkit",
		Subsystem: "alloc",
		Name:      "allocs_total",
		Help:      "Total number of pooled Allocate() calls",
	}, []string{"pool"})

	// poolDeallocs tracks Deallocate() calls that returned a run to a free list.
	poolDeallocs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolkit",
		Subsystem: "alloc",
		Name:      "deallocs_total",
		Help:      "Total number of pooled Deallocate() calls",
	}, []string{"pool"})

	// poolExpansions tracks reservations made because a free list was empty.
	poolExpansions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolkit",
		Subsystem: "alloc",
		Name:      "expansions_total",
		Help:      "Total number of pool expansions (free list misses)",
	}, []string{"pool"})

	// poolOversized tracks requests passed straight to the provider.
	poolOversized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolkit",
		Subsystem: "alloc",
		Name:      "oversized_total",
		Help:      "Total number of oversized allocations bypassing the pool",
	}, []string{"pool"})

	// poolOversizedReleases tracks oversized blocks handed back to the provider.
	poolOversizedReleases = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolkit",
		Subsystem: "alloc",
		Name:      "oversized_releases_total",
		Help:      "Total number of oversized blocks released to the provider",
	}, []string{"pool"})

	// poolFailures tracks provider reservations that failed.
	poolFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolkit",
		Subsystem: "alloc",
		Name:      "failures_total",
		Help:      "Total number of failed provider reservations",
	}, []string{"pool"})
)

// Metrics tracks pool activity for observability. One Metrics may be shared
// by several pools; the pool name is the Prometheus label.
type Metrics struct {
	allocs            atomic.Uint64
	deallocs          atomic.Uint64
	expansions        atomic.Uint64
	oversized         atomic.Uint64
	oversizedReleases atomic.Uint64
	failures          atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordAlloc increments the pooled allocation counter for a pool.
func (m *Metrics) RecordAlloc(pool string) {
	m.allocs.Add(1)
	poolAllocs.WithLabelValues(pool).Inc()
}

// RecordDealloc increments the pooled release counter for a pool.
func (m *Metrics) RecordDealloc(pool string) {
	m.deallocs.Add(1)
	poolDeallocs.WithLabelValues(pool).Inc()
}

// RecordExpansion increments the expansion counter for a pool.
func (m *Metrics) RecordExpansion(pool string) {
	m.expansions.Add(1)
	poolExpansions.WithLabelValues(pool).Inc()
}

// RecordOversized increments the oversized allocation counter for a pool.
func (m *Metrics) RecordOversized(pool string) {
	m.oversized.Add(1)
	poolOversized.WithLabelValues(pool).Inc()
}

// RecordOversizedRelease increments the oversized release counter for a pool.
func (m *Metrics) RecordOversizedRelease(pool string) {
	m.oversizedReleases.Add(1)
	poolOversizedReleases.WithLabelValues(pool).Inc()
}

// RecordFailure increments the failed reservation counter for a pool.
func (m *Metrics) RecordFailure(pool string) {
	m.failures.Add(1)
	poolFailures.WithLabelValues(pool).Inc()
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Allocs:            m.allocs.Load(),
		Deallocs:          m.deallocs.Load(),
		Expansions:        m.expansions.Load(),
		Oversized:         m.oversized.Load(),
		OversizedReleases: m.oversizedReleases.Load(),
		Failures:          m.failures.Load(),
	}
}

// MetricsSnapshot contains counter values at one point in time.
type MetricsSnapshot struct {
	Allocs            uint64
	Deallocs          uint64
	Expansions        uint64
	Oversized         uint64
	OversizedReleases uint64
	Failures          uint64
}

// HitRate is the share of pooled allocations that did not need an expansion.
// Each expansion serves Granularity allocations, so this is an approximation.
func (s MetricsSnapshot) HitRate() float64 {
	if s.Allocs == 0 {
		return 0
	}
	if s.Expansions >= s.Allocs {
		return 0
	}
	return float64(s.Allocs-s.Expansions) / float64(s.Allocs)
}
