package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"fastlob/internal/book"
	"fastlob/internal/domain"
	"fastlob/internal/event"
	"fastlob/internal/infra"
)

const panicDumpFile = "panic_dump.json"

// Top is the published top of book, readable from any goroutine.
type Top struct {
	Seq    uint64
	Orders int
	Bid    book.LevelView
	Ask    book.LevelView
	HasBid bool
	HasAsk bool
}

type snapshotReply struct {
	snap book.Snapshot
	seq  uint64
}

// Sequencer is the core single-threaded event processor.
// It is the only goroutine that touches the book, its levels and its pool.
type Sequencer struct {
	inbox   chan event.Event
	snapReq chan chan snapshotReply
	book    *book.Book
	nextSeq uint64
	metrics *infra.Metrics

	// Boundary: notified after every applied event with its outcome.
	onUpdate func(ev event.Event, err error)

	mu  sync.RWMutex // guards top only
	top Top
}

// NewSequencer creates a new sequencer instance.
func NewSequencer(inboxSize int, b *book.Book, metrics *infra.Metrics, onUpdate func(event.Event, error)) *Sequencer {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &Sequencer{
		inbox:    make(chan event.Event, inboxSize),
		snapReq:  make(chan chan snapshotReply),
		book:     b,
		nextSeq:  1,
		metrics:  metrics,
		onUpdate: onUpdate,
	}
}

// Inbox returns the event channel. External workers send events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run starts the main event loop. This MUST be run in a single goroutine.
// Processed events are released to the event pool.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started (Single-Thread Hotpath)", slog.Int("book", int(s.book.ID())))

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState(panicDumpFile)
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...", slog.Uint64("last_seq", s.nextSeq-1))
			return
		case reply := <-s.snapReq:
			// Everything enqueued before the request is reflected in the snapshot.
			s.drain()
			reply <- snapshotReply{snap: s.book.Snapshot(), seq: s.nextSeq - 1}
		case ev := <-s.inbox:
			s.handle(ev)
		}
	}
}

func (s *Sequencer) handle(ev event.Event) {
	err := s.processEvent(ev)
	if s.onUpdate != nil {
		s.onUpdate(ev, err)
	}
	event.Release(ev)
}

func (s *Sequencer) drain() {
	for {
		select {
		case ev := <-s.inbox:
			s.handle(ev)
		default:
			return
		}
	}
}

// Apply processes one event synchronously on the caller's goroutine.
// Only valid while Run is not running.
func (s *Sequencer) Apply(ev event.Event) error {
	return s.processEvent(ev)
}

func (s *Sequencer) processEvent(ev event.Event) error {
	start := time.Now()

	// 1. Sequence Gap Check (Halt Policy)
	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("SEQUENCE_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}

	// 2. Logic Dispatch
	err := s.dispatch(ev)
	if err != nil {
		if domain.IsContractViolation(err) {
			s.metrics.RecordContractViolation()
			panic(fmt.Sprintf("POOL_CONTRACT_VIOLATION: seq %d: %v", ev.GetSeq(), err))
		}
		s.metrics.RecordReject()
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrPoolExhausted) {
			level = slog.LevelError
		}
		slog.Log(context.Background(), level, "Event rejected",
			slog.Uint64("seq", ev.GetSeq()),
			slog.String("type", ev.GetType().String()),
			slog.Any("error", err))
	}

	// 3. Increment Sequence
	s.nextSeq++

	s.publish()
	s.metrics.RecordEvent(time.Since(start).Nanoseconds())
	return err
}

func (s *Sequencer) dispatch(ev event.Event) error {
	switch e := ev.(type) {
	case *event.AddOrderEvent:
		if _, err := s.book.Add(e.Side, e.OrderID, e.Price, e.Volume); err != nil {
			return err
		}
		s.metrics.RecordOrderAdded()
	case *event.CancelOrderEvent:
		if err := s.book.Cancel(e.OrderID); err != nil {
			return err
		}
		s.metrics.RecordOrderRemoved()
	case *event.ReduceOrderEvent:
		remaining, err := s.book.Reduce(e.OrderID, e.Volume)
		if err != nil {
			return err
		}
		if remaining == 0 {
			s.metrics.RecordOrderRemoved()
		}
	default:
		return fmt.Errorf("unknown event type %s", ev.GetType())
	}
	return nil
}

func (s *Sequencer) publish() {
	top := Top{Seq: s.nextSeq - 1, Orders: s.book.Orders()}
	if lvl, ok := s.book.Best(book.Bid); ok {
		top.Bid = book.LevelView{Price: lvl.Price(), Orders: lvl.Len(), Volume: lvl.TotalVolume()}
		top.HasBid = true
	}
	if lvl, ok := s.book.Best(book.Ask); ok {
		top.Ask = book.LevelView{Price: lvl.Price(), Orders: lvl.Len(), Volume: lvl.TotalVolume()}
		top.HasAsk = true
	}

	s.mu.Lock()
	s.top = top
	s.mu.Unlock()

	p := s.book.Pool()
	s.metrics.SetPool(p.Size(), p.Live())
	s.metrics.SetBookDepth(s.book.Levels(book.Bid) + s.book.Levels(book.Ask))
}

// Top returns the last published top of book (external read).
func (s *Sequencer) Top() Top {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.top
}

// Snapshot asks the running loop for a full copy of the book and the last applied sequence.
func (s *Sequencer) Snapshot(ctx context.Context) (book.Snapshot, uint64, error) {
	reply := make(chan snapshotReply, 1)
	select {
	case s.snapReq <- reply:
	case <-ctx.Done():
		return book.Snapshot{}, 0, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.snap, r.seq, nil
	case <-ctx.Done():
		return book.Snapshot{}, 0, ctx.Err()
	}
}

// DumpState writes the entire internal state to a file (for post-mortem).
// Owner goroutine only.
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64        `json:"next_seq"`
		Book    book.Snapshot `json:"book"`
	}{
		NextSeq: s.nextSeq,
		Book:    s.book.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
