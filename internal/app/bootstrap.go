package app

import (
	"context"
	"log/slog"
	"time"

	"fastlob/internal/book"
	"fastlob/internal/engine"
	"fastlob/internal/event"
	"fastlob/internal/infra"
	"fastlob/internal/infra/storage"
	"fastlob/internal/pool"
	"fastlob/pkg/quant"
)

// snapshotsKept bounds how many snapshots per book survive a shutdown.
const snapshotsKept = 20

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	Storage   *storage.Storage
	Book      *book.Book
	Sequencer *engine.Sequencer
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, book).
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping fastlob...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Pool + Book + Sequencer
	p := pool.New(pool.Config{
		InitialCapacity: cfg.Pool.InitialCapacity,
		MaxCapacity:     cfg.Pool.MaxCapacity,
	})
	b.Book = book.New(quant.BookID(cfg.Book.ID), p)
	b.Sequencer = engine.NewSequencer(cfg.Engine.InboxSize, b.Book, infra.GlobalMetrics, b.onUpdate)
	event.Warmup()
	slog.Info("✅ Order pool ready",
		slog.Int("initial_capacity", cfg.Pool.InitialCapacity),
		slog.Int("max_capacity", p.Cap()))

	return nil
}

func (b *Bootstrap) onUpdate(ev event.Event, err error) {
	if err != nil || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("Event applied",
		slog.Uint64("seq", ev.GetSeq()),
		slog.String("type", ev.GetType().String()))
}

// RunDemo feeds a short add/cancel/reuse scenario through the inbox.
func (b *Bootstrap) RunDemo(ctx context.Context) {
	price, ok := quant.PriceFromDecimal(b.Config.Engine.DemoPrice, b.Config.Book.TickSize)
	if !ok {
		slog.Warn("Demo price is not a multiple of the tick size",
			slog.String("price", b.Config.Engine.DemoPrice.String()),
			slog.String("tick", b.Config.Book.TickSize.String()))
		return
	}

	var seq uint64
	send := func(ev event.Event) bool {
		select {
		case b.Sequencer.Inbox() <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	addOrder := func(id quant.OrderID, vol quant.Volume) bool {
		seq++
		ev := event.AcquireAddOrderEvent()
		ev.Seq = seq
		ev.Ts = quant.TimeStamp(time.Now().UnixMicro())
		ev.Side = book.Bid
		ev.OrderID = id
		ev.Price = price
		ev.Volume = vol
		return send(ev)
	}

	for i, vol := range []quant.Volume{10, 20, 30} {
		if !addOrder(quant.OrderID(i+1), vol) {
			return
		}
	}

	seq++
	cancel := event.AcquireCancelOrderEvent()
	cancel.Seq = seq
	cancel.OrderID = 2
	if !send(cancel) {
		return
	}

	if !addOrder(4, 40) {
		return
	}

	snap, last, err := b.Sequencer.Snapshot(ctx)
	if err != nil {
		return
	}
	slog.Info("🧪 Demo scenario applied",
		slog.Uint64("seq", last),
		slog.Int("orders", snap.Orders),
		slog.Any("pool", snap.Pool),
		slog.Any("bids", snap.Bids))
}

// PersistSnapshot stores the current book state.
// Must be called while the sequencer loop is still running.
func (b *Bootstrap) PersistSnapshot(ctx context.Context) error {
	snap, seq, err := b.Sequencer.Snapshot(ctx)
	if err != nil {
		return err
	}

	rec := storage.NewBookSnapshot(snap, b.Config.Book.Symbol, b.Config.Book.TickSize, seq)
	if err := b.Storage.SaveSnapshot(ctx, rec); err != nil {
		return err
	}
	if _, err := b.Storage.PruneSnapshots(ctx, rec.BookID, snapshotsKept); err != nil {
		slog.Warn("Failed to prune snapshots", slog.Any("error", err))
	}

	slog.Info("💾 Book snapshot saved",
		slog.Uint64("seq", seq),
		slog.Int("levels", len(rec.Levels)),
		slog.Int("pool_size", rec.PoolSize))
	return nil
}

// Close releases resources.
func (b *Bootstrap) Close() {
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Warn("Failed to close storage", slog.Any("error", err))
		}
	}
}
