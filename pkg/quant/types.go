package quant

import "github.com/shopspring/decimal"

// Strong-typed numerics shared by the pool, levels and book.
// All values are plain integers; conversion to human units happens at the edges.
type (
	OrderID uint64 // process-unique within a pool
	Price   int64  // signed fixed-point tick count
	Volume  uint64 // remaining quantity
	LevelID uint32 // price level tag, unique within a pool
	BookID  uint16

	TimeStamp int64 // Unix microseconds
)

// Decimal renders the tick count as a decimal price.
func (p Price) Decimal(tick decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Mul(tick)
}

// PriceFromDecimal converts a decimal price into ticks.
// ok is false when d is not an exact multiple of tick or does not fit in a Price.
func PriceFromDecimal(d, tick decimal.Decimal) (p Price, ok bool) {
	if tick.Sign() <= 0 {
		return 0, false
	}
	q, r := d.QuoRem(tick, 0)
	if !r.IsZero() || !q.BigInt().IsInt64() {
		return 0, false
	}
	return Price(q.IntPart()), true
}
