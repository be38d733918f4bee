package pool

import "fastlob/pkg/quant"

// Record is one order slot's payload.
// Prev, Next and Level belong to whichever price level holds the record;
// the pool never reads or writes them.
type Record struct {
	ID     quant.OrderID
	Price  quant.Price
	Volume quant.Volume

	Level quant.LevelID
	Prev  Handle
	Next  Handle
}
