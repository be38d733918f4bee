package pool

import (
	"errors"
	"slices"
	"testing"

	"fastlob/internal/domain"
	"fastlob/pkg/quant"

	"pgregory.net/rapid"
)

// Model-based check of the allocator against a map of live handles.
func TestProperty_PoolLifecycle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := New(Config{InitialCapacity: rapid.IntRange(0, 8).Draw(t, "initial")})

		live := map[Handle]quant.OrderID{} // handle -> ID written at allocation
		var freed []Handle
		nextID := quant.OrderID(1)
		lastSize := 0

		t.Repeat(map[string]func(*rapid.T){
			"allocate": func(t *rapid.T) {
				h, err := p.Allocate()
				if err != nil {
					t.Fatalf("Allocate failed: %v", err)
				}
				for other := range live {
					if other.Index() == h.Index() {
						t.Fatalf("slot %d issued while still live", h.Index())
					}
				}
				p.MustResolve(h).ID = nextID
				live[h] = nextID
				nextID++
			},
			"deallocate": func(t *rapid.T) {
				if len(live) == 0 {
					t.Skip("nothing live")
				}
				h := rapid.SampledFrom(sortedHandles(live)).Draw(t, "handle")
				if err := p.Deallocate(h); err != nil {
					t.Fatalf("Deallocate(%s) failed: %v", h, err)
				}
				delete(live, h)
				freed = append(freed, h)
			},
			"free again": func(t *rapid.T) {
				if len(freed) == 0 {
					t.Skip("nothing freed")
				}
				h := rapid.SampledFrom(freed).Draw(t, "freed")
				err := p.Deallocate(h)
				// Same generation still free: double free. Slot reissued since: stale.
				if !errors.Is(err, domain.ErrDoubleFree) && !errors.Is(err, domain.ErrStaleHandle) {
					t.Fatalf("expected double free or stale for %s, got %v", h, err)
				}
			},
			"": func(t *rapid.T) {
				if p.Size() < lastSize {
					t.Fatalf("size decreased from %d to %d", lastSize, p.Size())
				}
				lastSize = p.Size()

				if p.Live() != len(live) {
					t.Fatalf("Live() = %d, model has %d", p.Live(), len(live))
				}
				for h, id := range live {
					rec, err := p.Resolve(h)
					if err != nil {
						t.Fatalf("live handle %s does not resolve: %v", h, err)
					}
					if rec.ID != id {
						t.Fatalf("handle %s resolves to ID %d, want %d", h, rec.ID, id)
					}
				}
				for _, h := range freed {
					if p.IsLive(h) {
						t.Fatalf("freed handle %s still resolves", h)
					}
				}
			},
		})
	})
}

// Every freed slot is reissued before the pool grows.
func TestProperty_FreedSlotsReissuedBeforeGrowth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		p := New(Config{})

		hs := make([]Handle, n)
		for i := range hs {
			hs[i], _ = p.Allocate()
		}

		mask := rapid.SliceOfN(rapid.Bool(), n, n).Draw(t, "free")
		want := map[uint32]bool{}
		for i, h := range hs {
			if mask[i] {
				p.Deallocate(h)
				want[h.Index()] = true
			}
		}

		size := p.Size()
		for n, cnt := 0, len(want); n < cnt; n++ {
			h, err := p.Allocate()
			if err != nil {
				t.Fatalf("Allocate failed: %v", err)
			}
			if !want[h.Index()] {
				t.Fatalf("expected a recycled slot, got %d", h.Index())
			}
			delete(want, h.Index())
		}
		if p.Size() != size {
			t.Fatalf("pool grew while free slots remained: %d -> %d", size, p.Size())
		}
	})
}

func sortedHandles(m map[Handle]quant.OrderID) []Handle {
	out := make([]Handle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
