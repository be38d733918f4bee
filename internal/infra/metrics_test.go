package infra

import (
	"testing"
)

func TestMetrics_RecordEvent(t *testing.T) {
	m := &Metrics{}

	m.RecordEvent(1000)
	m.RecordEvent(2000)
	m.RecordEvent(3000)

	snap := m.Snapshot()

	if snap.EventsProcessed != 3 {
		t.Errorf("Expected 3 events, got %d", snap.EventsProcessed)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_Orders(t *testing.T) {
	m := &Metrics{}

	m.RecordOrderAdded()
	m.RecordOrderAdded()
	m.RecordOrderRemoved()
	m.RecordReject()
	m.RecordContractViolation()

	snap := m.Snapshot()
	if snap.OrdersAdded != 2 || snap.OrdersRemoved != 1 {
		t.Errorf("Expected 2 added / 1 removed, got %d / %d", snap.OrdersAdded, snap.OrdersRemoved)
	}
	if snap.RejectsTotal != 1 || snap.ContractViolations != 1 {
		t.Errorf("Expected 1 reject / 1 violation, got %d / %d", snap.RejectsTotal, snap.ContractViolations)
	}
}

func TestMetrics_Gauges(t *testing.T) {
	m := &Metrics{}

	m.SetPool(10, 7)
	m.SetBookDepth(3)

	snap := m.Snapshot()
	if snap.PoolSize != 10 || snap.PoolLive != 7 || snap.BookDepth != 3 {
		t.Errorf("Unexpected gauges %+v", snap)
	}

	m.SetPool(10, 2)
	if m.Snapshot().PoolLive != 2 {
		t.Error("Expected gauge to be overwritten")
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordEvent(1000)
	m.RecordReject()
	m.SetPool(4, 4)

	m.Reset()
	snap := m.Snapshot()

	if snap.EventsProcessed != 0 {
		t.Error("Expected 0 events after reset")
	}
	if snap.RejectsTotal != 0 {
		t.Error("Expected 0 rejects after reset")
	}
	if snap.PoolSize != 0 || snap.AvgLatencyNs != 0 {
		t.Error("Expected cleared gauges after reset")
	}
}
