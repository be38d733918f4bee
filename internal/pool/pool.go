package pool

import (
	"fmt"

	"fastlob/internal/domain"
	"fastlob/pkg/quant"
)

const (
	// Slots live in fixed-size pages that are never reallocated,
	// so a slot's address is stable for the life of the pool.
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1

	// maxSlots is bounded by the index bits of a Handle.
	maxSlots = indexMask + 1
)

// Config sizes a Pool.
type Config struct {
	// InitialCapacity is the number of slots reserved up front.
	InitialCapacity int
	// MaxCapacity caps the number of slots. Zero means only the index space limits growth.
	MaxCapacity int
}

type slot struct {
	rec  Record
	gen  uint32
	live bool
}

// Pool hands out stable handles to order records and recycles them through a free list.
// It is not safe for concurrent use: one pool belongs to one goroutine.
type Pool struct {
	tag   uint16 // stamped into every handle this pool issues
	pages [][]slot
	n     int      // slots ever created
	free  []uint32 // LIFO stack of freed slot indices
	limit int

	levels quant.LevelID
}

// New creates a pool with cfg.InitialCapacity slots pre-reserved.
func New(cfg Config) *Pool {
	limit := cfg.MaxCapacity
	if limit <= 0 || limit > maxSlots {
		limit = maxSlots
	}

	initial := min(max(cfg.InitialCapacity, 0), limit)
	numPages := (initial + pageSize - 1) / pageSize

	p := &Pool{
		tag:   nextPoolTag(),
		pages: make([][]slot, 0, max(numPages, 1)),
		free:  make([]uint32, 0, initial),
		limit: limit,
	}
	for i := 0; i < numPages; i++ {
		p.pages = append(p.pages, make([]slot, pageSize))
	}
	return p
}

func (p *Pool) slot(idx uint32) *slot {
	return &p.pages[idx>>pageShift][idx&pageMask]
}

// Allocate returns a live handle. Recycled slots keep whatever the previous
// owner left in them: callers must set every field they rely on.
func (p *Pool) Allocate() (Handle, error) {
	if k := len(p.free); k > 0 {
		idx := p.free[k-1]
		p.free = p.free[:k-1]

		s := p.slot(idx)
		s.gen = (s.gen + 1) & genMask
		if s.gen == 0 {
			s.gen = 1
		}
		s.live = true
		return makeHandle(p.tag, idx, s.gen), nil
	}

	if p.n >= p.limit {
		return NilHandle, fmt.Errorf("allocate: %w (capacity %d)", domain.ErrPoolExhausted, p.limit)
	}
	if p.n == len(p.pages)*pageSize {
		p.pages = append(p.pages, make([]slot, pageSize))
	}

	idx := uint32(p.n)
	p.n++

	s := p.slot(idx)
	s.gen = 1
	s.live = true
	return makeHandle(p.tag, idx, s.gen), nil
}

// lookup finds the slot named by h without checking liveness.
func (p *Pool) lookup(h Handle) (*slot, error) {
	if !h.IsNil() && h.tag() != p.tag {
		return nil, domain.ErrForeignHandle
	}
	gen := h.generation()
	if gen == 0 || int(h.Index()) >= p.n {
		return nil, domain.ErrInvalidHandle
	}
	s := p.slot(h.Index())
	switch {
	case gen < s.gen:
		return nil, domain.ErrStaleHandle
	case gen > s.gen:
		return nil, domain.ErrInvalidHandle
	}
	return s, nil
}

// Deallocate returns h's slot to the free list.
// The caller must have unlinked the record from its level first.
func (p *Pool) Deallocate(h Handle) error {
	s, err := p.lookup(h)
	if err != nil {
		return &domain.HandleError{Op: "deallocate", Handle: uint64(h), Err: err}
	}
	if !s.live {
		return &domain.HandleError{Op: "deallocate", Handle: uint64(h), Err: domain.ErrDoubleFree}
	}
	s.live = false
	p.free = append(p.free, h.Index())
	return nil
}

// Resolve returns the record behind a live handle.
// The pointer stays valid until h is deallocated.
func (p *Pool) Resolve(h Handle) (*Record, error) {
	s, err := p.lookup(h)
	if err != nil {
		return nil, &domain.HandleError{Op: "resolve", Handle: uint64(h), Err: err}
	}
	if !s.live {
		return nil, &domain.HandleError{Op: "resolve", Handle: uint64(h), Err: domain.ErrInvalidHandle}
	}
	return &s.rec, nil
}

// MustResolve is Resolve for callers whose own invariants guarantee h is live.
// Panics otherwise.
func (p *Pool) MustResolve(h Handle) *Record {
	rec, err := p.Resolve(h)
	if err != nil {
		panic(fmt.Sprintf("POOL_CONTRACT_VIOLATION: %v", err))
	}
	return rec
}

// IsLive reports whether h currently resolves.
func (p *Pool) IsLive(h Handle) bool {
	s, err := p.lookup(h)
	return err == nil && s.live
}

// Size returns the number of slots ever created, live or free. It never decreases.
func (p *Pool) Size() int {
	return p.n
}

// Live returns the number of allocated slots.
func (p *Pool) Live() int {
	return p.n - len(p.free)
}

// Free returns the number of slots waiting for reuse.
func (p *Pool) Free() int {
	return len(p.free)
}

// Cap returns the slot ceiling.
func (p *Pool) Cap() int {
	return p.limit
}

// NextLevelID issues a tag for a new price level drawing from this pool.
func (p *Pool) NextLevelID() quant.LevelID {
	p.levels++
	return p.levels
}

// Each calls fn for every live slot in index order until fn returns false.
func (p *Pool) Each(fn func(h Handle, rec *Record) bool) {
	for i := 0; i < p.n; i++ {
		s := p.slot(uint32(i))
		if !s.live {
			continue
		}
		if !fn(makeHandle(p.tag, uint32(i), s.gen), &s.rec) {
			return
		}
	}
}

// Stats is a point-in-time view of pool occupancy.
type Stats struct {
	Size  int `json:"size"`
	Live  int `json:"live"`
	Free  int `json:"free"`
	Pages int `json:"pages"`
}

// Stats returns current occupancy.
func (p *Pool) Stats() Stats {
	return Stats{
		Size:  p.n,
		Live:  p.Live(),
		Free:  len(p.free),
		Pages: len(p.pages),
	}
}
