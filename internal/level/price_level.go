package level

import (
	"errors"

	"fastlob/internal/domain"
	"fastlob/internal/pool"
	"fastlob/pkg/quant"
	"fastlob/pkg/safe"
)

// PriceLevel is the FIFO of orders resting at one price.
// Orders are threaded through the Prev/Next links of their pool records,
// oldest at head. A level stays usable after it empties; dropping it from
// any book-wide index is the owner's job.
type PriceLevel struct {
	id    quant.LevelID
	price quant.Price
	pool  *pool.Pool

	head   pool.Handle
	tail   pool.Handle
	count  int
	volume quant.Volume
}

// New creates an empty level drawing records from p.
func New(p *pool.Pool, price quant.Price) *PriceLevel {
	return &PriceLevel{
		id:    p.NextLevelID(),
		price: price,
		pool:  p,
	}
}

func (l *PriceLevel) ID() quant.LevelID         { return l.id }
func (l *PriceLevel) Price() quant.Price        { return l.price }
func (l *PriceLevel) Head() pool.Handle         { return l.head }
func (l *PriceLevel) Tail() pool.Handle         { return l.tail }
func (l *PriceLevel) Len() int                  { return l.count }
func (l *PriceLevel) TotalVolume() quant.Volume { return l.volume }
func (l *PriceLevel) Empty() bool               { return l.count == 0 }

// AddOrder allocates a record, fills it and appends it at the tail.
// The returned handle is the caller's reference for later cancels and fills.
// An order that would overflow the level's total volume is refused before allocating.
func (l *PriceLevel) AddOrder(id quant.OrderID, volume quant.Volume) (pool.Handle, error) {
	total, ok := safe.Add(l.volume, volume)
	if !ok {
		return pool.NilHandle, &domain.HandleError{Op: "add", Err: domain.ErrVolumeOverflow}
	}

	h, err := l.pool.Allocate()
	if err != nil {
		return pool.NilHandle, err
	}

	// Recycled slots carry stale data; overwrite every field.
	*l.pool.MustResolve(h) = pool.Record{
		ID:     id,
		Price:  l.price,
		Volume: volume,
		Level:  l.id,
		Prev:   l.tail,
		Next:   pool.NilHandle,
	}

	if l.tail.IsNil() {
		l.head = h
	} else {
		l.pool.MustResolve(l.tail).Next = h
	}
	l.tail = h
	l.count++
	l.volume = total
	return h, nil
}

// RemoveOrder unlinks h and returns its slot to the pool.
// Removing a handle this level does not hold is an error, never a no-op.
func (l *PriceLevel) RemoveOrder(h pool.Handle) error {
	o, err := l.member("remove", h)
	if err != nil {
		return err
	}
	l.volume = safe.SafeSub(l.volume, o.Volume)
	l.unlink(o)
	return l.pool.Deallocate(h)
}

// Reduce takes qty off h's resting volume and removes the order once it reaches zero.
func (l *PriceLevel) Reduce(h pool.Handle, qty quant.Volume) (quant.Volume, error) {
	o, err := l.member("reduce", h)
	if err != nil {
		return 0, err
	}
	if qty > o.Volume {
		return o.Volume, &domain.HandleError{Op: "reduce", Handle: uint64(h), Err: domain.ErrOverfill}
	}

	o.Volume -= qty
	l.volume = safe.SafeSub(l.volume, qty)
	if o.Volume > 0 {
		return o.Volume, nil
	}

	l.unlink(o)
	return 0, l.pool.Deallocate(h)
}

// Each walks the queue head to tail until fn returns false.
func (l *PriceLevel) Each(fn func(h pool.Handle, o *pool.Record) bool) {
	for h := l.head; !h.IsNil(); {
		o := l.pool.MustResolve(h)
		next := o.Next
		if !fn(h, o) {
			return
		}
		h = next
	}
}

func (l *PriceLevel) member(op string, h pool.Handle) (*pool.Record, error) {
	o, err := l.pool.Resolve(h)
	if err != nil {
		return nil, &domain.HandleError{Op: op, Handle: uint64(h), Err: errors.Unwrap(err)}
	}
	if o.Level != l.id {
		return nil, &domain.HandleError{Op: op, Handle: uint64(h), Err: domain.ErrOrderNotInLevel}
	}
	return o, nil
}

func (l *PriceLevel) unlink(o *pool.Record) {
	if o.Prev.IsNil() {
		l.head = o.Next
	} else {
		l.pool.MustResolve(o.Prev).Next = o.Next
	}
	if o.Next.IsNil() {
		l.tail = o.Prev
	} else {
		l.pool.MustResolve(o.Next).Prev = o.Prev
	}
	o.Prev, o.Next = pool.NilHandle, pool.NilHandle
	o.Level = 0
	l.count--
}
