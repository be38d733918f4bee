package pool

import (
	"fmt"
	"sync/atomic"
)

// Handle layout, low to high: slot index, issuing pool tag, generation.
const (
	indexBits = 28
	tagBits   = 12
	genBits   = 64 - indexBits - tagBits

	indexMask = 1<<indexBits - 1
	tagMask   = 1<<tagBits - 1
	genMask   = 1<<genBits - 1
)

// Handle is an opaque reference to a pool slot.
// It names the slot index, the pool that issued it and the slot's generation.
// Generations and pool tags start at 1, so the zero Handle never resolves.
type Handle uint64

// NilHandle is the null link sentinel.
const NilHandle Handle = 0

// poolTags numbers pools process-wide. Tags cycle through 1..tagMask.
var poolTags atomic.Uint32

func nextPoolTag() uint16 {
	return uint16((poolTags.Add(1)-1)%tagMask + 1)
}

func makeHandle(tag uint16, idx, gen uint32) Handle {
	return Handle(uint64(gen&genMask)<<(indexBits+tagBits) |
		uint64(tag&tagMask)<<indexBits |
		uint64(idx&indexMask))
}

// Index returns the slot index. Diagnostics only: do not derive handles from it.
func (h Handle) Index() uint32 {
	return uint32(h & indexMask)
}

func (h Handle) tag() uint16 {
	return uint16(h >> indexBits & tagMask)
}

func (h Handle) generation() uint32 {
	return uint32(h >> (indexBits + tagBits))
}

// IsNil reports whether h is the null sentinel.
func (h Handle) IsNil() bool {
	return h == NilHandle
}

func (h Handle) String() string {
	if h == NilHandle {
		return "nil"
	}
	return fmt.Sprintf("%d.%d", h.Index(), h.generation())
}
