package event

import (
	"sync"
)

// Event pools reduce GC pressure on the ingestion side.
//
// Usage:
//
//	ev := AcquireAddOrderEvent()
//	ev.OrderID = 42
//	// ... hand to the sequencer ...
//	Release(ev) // once the sequencer is done with it
var addOrderPool = sync.Pool{
	New: func() interface{} {
		return &AddOrderEvent{}
	},
}

// AcquireAddOrderEvent gets an AddOrderEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireAddOrderEvent() *AddOrderEvent {
	return addOrderPool.Get().(*AddOrderEvent)
}

// ReleaseAddOrderEvent returns an AddOrderEvent to the pool.
func ReleaseAddOrderEvent(ev *AddOrderEvent) {
	if ev == nil {
		return
	}
	*ev = AddOrderEvent{}
	addOrderPool.Put(ev)
}

var cancelOrderPool = sync.Pool{
	New: func() interface{} {
		return &CancelOrderEvent{}
	},
}

// AcquireCancelOrderEvent gets a CancelOrderEvent from the pool.
func AcquireCancelOrderEvent() *CancelOrderEvent {
	return cancelOrderPool.Get().(*CancelOrderEvent)
}

// ReleaseCancelOrderEvent returns a CancelOrderEvent to the pool.
func ReleaseCancelOrderEvent(ev *CancelOrderEvent) {
	if ev == nil {
		return
	}
	*ev = CancelOrderEvent{}
	cancelOrderPool.Put(ev)
}

var reduceOrderPool = sync.Pool{
	New: func() interface{} {
		return &ReduceOrderEvent{}
	},
}

// AcquireReduceOrderEvent gets a ReduceOrderEvent from the pool.
func AcquireReduceOrderEvent() *ReduceOrderEvent {
	return reduceOrderPool.Get().(*ReduceOrderEvent)
}

// ReleaseReduceOrderEvent returns a ReduceOrderEvent to the pool.
func ReleaseReduceOrderEvent(ev *ReduceOrderEvent) {
	if ev == nil {
		return
	}
	*ev = ReduceOrderEvent{}
	reduceOrderPool.Put(ev)
}

// Release returns any pooled event to its pool.
func Release(ev Event) {
	switch e := ev.(type) {
	case *AddOrderEvent:
		ReleaseAddOrderEvent(e)
	case *CancelOrderEvent:
		ReleaseCancelOrderEvent(e)
	case *ReduceOrderEvent:
		ReleaseReduceOrderEvent(e)
	}
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	adds := make([]*AddOrderEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		adds = append(adds, AcquireAddOrderEvent())
	}
	for _, ev := range adds {
		ReleaseAddOrderEvent(ev)
	}

	cancels := make([]*CancelOrderEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		cancels = append(cancels, AcquireCancelOrderEvent())
	}
	for _, ev := range cancels {
		ReleaseCancelOrderEvent(ev)
	}

	reduces := make([]*ReduceOrderEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		reduces = append(reduces, AcquireReduceOrderEvent())
	}
	for _, ev := range reduces {
		ReleaseReduceOrderEvent(ev)
	}
}
