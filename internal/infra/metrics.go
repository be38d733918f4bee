package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Written by the sequencer goroutine, readable from anywhere.
type Metrics struct {
	// Counters
	eventsProcessed    atomic.Uint64
	ordersAdded        atomic.Uint64
	ordersRemoved      atomic.Uint64
	rejectsTotal       atomic.Uint64
	contractViolations atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	poolSize  atomic.Int64
	poolLive  atomic.Int64
	bookDepth atomic.Int64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records an event processing with latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordOrderAdded records an order resting in the book.
func (m *Metrics) RecordOrderAdded() {
	m.ordersAdded.Add(1)
}

// RecordOrderRemoved records an order leaving the book (cancel or full fill).
func (m *Metrics) RecordOrderRemoved() {
	m.ordersRemoved.Add(1)
}

// RecordReject records a command refused for caller error (unknown ID, duplicate, ...).
func (m *Metrics) RecordReject() {
	m.rejectsTotal.Add(1)
}

// RecordContractViolation records a broken pool or level invariant.
func (m *Metrics) RecordContractViolation() {
	m.contractViolations.Add(1)
}

// SetPool sets the pool gauges.
func (m *Metrics) SetPool(size, live int) {
	m.poolSize.Store(int64(size))
	m.poolLive.Store(int64(live))
}

// SetBookDepth sets the number of indexed price levels.
func (m *Metrics) SetBookDepth(levels int) {
	m.bookDepth.Store(int64(levels))
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed    uint64
	OrdersAdded        uint64
	OrdersRemoved      uint64
	RejectsTotal       uint64
	ContractViolations uint64
	AvgLatencyNs       int64
	PoolSize           int64
	PoolLive           int64
	BookDepth          int64
	Timestamp          time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed:    m.eventsProcessed.Load(),
		OrdersAdded:        m.ordersAdded.Load(),
		OrdersRemoved:      m.ordersRemoved.Load(),
		RejectsTotal:       m.rejectsTotal.Load(),
		ContractViolations: m.contractViolations.Load(),
		AvgLatencyNs:       avgLatency,
		PoolSize:           m.poolSize.Load(),
		PoolLive:           m.poolLive.Load(),
		BookDepth:          m.bookDepth.Load(),
		Timestamp:          time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsProcessed.Store(0)
	m.ordersAdded.Store(0)
	m.ordersRemoved.Store(0)
	m.rejectsTotal.Store(0)
	m.contractViolations.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.poolSize.Store(0)
	m.poolLive.Store(0)
	m.bookDepth.Store(0)
}
