package book

import (
	"testing"

	"fastlob/internal/pool"
	"fastlob/pkg/quant"
)

// BenchmarkBook_AddCancel measures the place/cancel cycle at a warm level.
func BenchmarkBook_AddCancel(b *testing.B) {
	bk := New(1, pool.New(pool.Config{InitialCapacity: 1024}))
	bk.Add(Bid, 0, 100, 1) // keep the level indexed

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		id := quant.OrderID(i + 1)
		bk.Add(Bid, id, 100, 10)
		bk.Cancel(id)
	}
}
