package book

import (
	"fmt"
	"log/slog"

	"fastlob/internal/domain"
	"fastlob/internal/level"
	"fastlob/internal/pool"
	"fastlob/pkg/quant"

	"github.com/tidwall/btree"
)

// Side of the book an order rests on.
type Side uint8

const (
	Bid Side = iota
	Ask
)

// String returns the string representation of Side
func (s Side) String() string {
	switch s {
	case Bid:
		return "BID"
	case Ask:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

type locator struct {
	side  Side
	level *level.PriceLevel
	h     pool.Handle
}

// Book indexes price levels by side and price and tracks where each order rests.
// It never crosses or matches; it only places, reduces and cancels.
// All levels of a book share one pool. Not safe for concurrent use.
type Book struct {
	id   quant.BookID
	pool *pool.Pool

	bids *btree.Map[quant.Price, *level.PriceLevel]
	asks *btree.Map[quant.Price, *level.PriceLevel]

	orders map[quant.OrderID]locator
}

// New creates an empty book backed by p.
func New(id quant.BookID, p *pool.Pool) *Book {
	return &Book{
		id:     id,
		pool:   p,
		bids:   btree.NewMap[quant.Price, *level.PriceLevel](32),
		asks:   btree.NewMap[quant.Price, *level.PriceLevel](32),
		orders: make(map[quant.OrderID]locator),
	}
}

func (b *Book) ID() quant.BookID {
	return b.id
}

// Pool returns the pool backing every level of the book.
func (b *Book) Pool() *pool.Pool {
	return b.pool
}

func (b *Book) tree(s Side) *btree.Map[quant.Price, *level.PriceLevel] {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

// Add rests an order at the tail of its price level, creating the level if needed.
func (b *Book) Add(s Side, id quant.OrderID, price quant.Price, volume quant.Volume) (pool.Handle, error) {
	if s != Bid && s != Ask {
		return pool.NilHandle, fmt.Errorf("add order %d: unknown side %d", id, s)
	}
	if volume == 0 {
		return pool.NilHandle, fmt.Errorf("add order %d: %w", id, domain.ErrZeroVolume)
	}
	if _, dup := b.orders[id]; dup {
		return pool.NilHandle, fmt.Errorf("add order %d: %w", id, domain.ErrDuplicateOrder)
	}

	tree := b.tree(s)
	lvl, ok := tree.Get(price)
	if !ok {
		lvl = level.New(b.pool, price)
	}

	h, err := lvl.AddOrder(id, volume)
	if err != nil {
		return pool.NilHandle, fmt.Errorf("add order %d: %w", id, err)
	}
	if !ok {
		tree.Set(price, lvl)
	}

	b.orders[id] = locator{side: s, level: lvl, h: h}
	return h, nil
}

// Cancel removes a resting order by ID.
func (b *Book) Cancel(id quant.OrderID) error {
	loc, ok := b.orders[id]
	if !ok {
		return fmt.Errorf("cancel order %d: %w", id, domain.ErrOrderNotFound)
	}
	if err := loc.level.RemoveOrder(loc.h); err != nil {
		return fmt.Errorf("cancel order %d: %w", id, err)
	}
	delete(b.orders, id)
	b.dropIfEmpty(loc)
	return nil
}

// Reduce takes qty off a resting order, removing it when nothing is left.
func (b *Book) Reduce(id quant.OrderID, qty quant.Volume) (quant.Volume, error) {
	loc, ok := b.orders[id]
	if !ok {
		return 0, fmt.Errorf("reduce order %d: %w", id, domain.ErrOrderNotFound)
	}
	remaining, err := loc.level.Reduce(loc.h, qty)
	if err != nil {
		return remaining, fmt.Errorf("reduce order %d: %w", id, err)
	}
	if remaining == 0 {
		delete(b.orders, id)
		b.dropIfEmpty(loc)
	}
	return remaining, nil
}

func (b *Book) dropIfEmpty(loc locator) {
	if !loc.level.Empty() {
		return
	}
	b.tree(loc.side).Delete(loc.level.Price())
	slog.Debug("Price level emptied",
		slog.Int("book", int(b.id)),
		slog.String("side", loc.side.String()),
		slog.Int64("price", int64(loc.level.Price())))
}

// Handle returns the pool handle of a resting order.
func (b *Book) Handle(id quant.OrderID) (pool.Handle, bool) {
	loc, ok := b.orders[id]
	return loc.h, ok
}

// Order returns a copy of a resting order's record.
func (b *Book) Order(id quant.OrderID) (pool.Record, bool) {
	loc, ok := b.orders[id]
	if !ok {
		return pool.Record{}, false
	}
	return *b.pool.MustResolve(loc.h), true
}

// Level returns the level at price on side s.
func (b *Book) Level(s Side, price quant.Price) (*level.PriceLevel, bool) {
	return b.tree(s).Get(price)
}

// Best returns the highest bid or the lowest ask.
func (b *Book) Best(s Side) (*level.PriceLevel, bool) {
	var lvl *level.PriceLevel
	var ok bool
	if s == Bid {
		_, lvl, ok = b.bids.Max()
	} else {
		_, lvl, ok = b.asks.Min()
	}
	return lvl, ok
}

// Orders returns the number of resting orders.
func (b *Book) Orders() int {
	return len(b.orders)
}

// Levels returns the number of non-empty levels on side s.
func (b *Book) Levels(s Side) int {
	return b.tree(s).Len()
}

// LevelView is an aggregated price level.
type LevelView struct {
	Price  quant.Price  `json:"price"`
	Orders int          `json:"orders"`
	Volume quant.Volume `json:"volume"`
}

// Depth returns up to n levels from the top of side s. n <= 0 returns all levels.
func (b *Book) Depth(s Side, n int) []LevelView {
	tree := b.tree(s)
	size := tree.Len()
	if n > 0 && n < size {
		size = n
	}
	out := make([]LevelView, 0, size)

	visit := func(_ quant.Price, lvl *level.PriceLevel) bool {
		out = append(out, LevelView{Price: lvl.Price(), Orders: lvl.Len(), Volume: lvl.TotalVolume()})
		return n <= 0 || len(out) < n
	}
	if s == Bid {
		tree.Reverse(visit)
	} else {
		tree.Scan(visit)
	}
	return out
}

// Snapshot is a full aggregated view of the book.
type Snapshot struct {
	Book   quant.BookID `json:"book"`
	Orders int          `json:"orders"`
	Bids   []LevelView  `json:"bids"`
	Asks   []LevelView  `json:"asks"`
	Pool   pool.Stats   `json:"pool"`
}

// Snapshot copies the aggregated state of the book.
func (b *Book) Snapshot() Snapshot {
	return Snapshot{
		Book:   b.id,
		Orders: len(b.orders),
		Bids:   b.Depth(Bid, 0),
		Asks:   b.Depth(Ask, 0),
		Pool:   b.pool.Stats(),
	}
}
