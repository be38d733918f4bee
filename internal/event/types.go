package event

import (
	"fastlob/internal/book"
	"fastlob/pkg/quant"
)

// Type identifies an event kind.
type Type uint8

const (
	TypeAddOrder Type = iota + 1
	TypeCancelOrder
	TypeReduceOrder
)

// String returns the string representation of Type
func (t Type) String() string {
	switch t {
	case TypeAddOrder:
		return "ADD_ORDER"
	case TypeCancelOrder:
		return "CANCEL_ORDER"
	case TypeReduceOrder:
		return "REDUCE_ORDER"
	default:
		return "UNKNOWN"
	}
}

// Event is a sequenced command for the book owner.
type Event interface {
	GetSeq() uint64
	GetType() Type
}

// BaseEvent carries the sequence number and receive time.
type BaseEvent struct {
	Seq uint64
	Ts  quant.TimeStamp
}

func (e *BaseEvent) GetSeq() uint64 {
	return e.Seq
}

// AddOrderEvent rests a new order.
type AddOrderEvent struct {
	BaseEvent
	Side    book.Side
	OrderID quant.OrderID
	Price   quant.Price
	Volume  quant.Volume
}

func (e *AddOrderEvent) GetType() Type {
	return TypeAddOrder
}

// CancelOrderEvent removes a resting order.
type CancelOrderEvent struct {
	BaseEvent
	OrderID quant.OrderID
}

func (e *CancelOrderEvent) GetType() Type {
	return TypeCancelOrder
}

// ReduceOrderEvent takes volume off a resting order, e.g. after a fill.
type ReduceOrderEvent struct {
	BaseEvent
	OrderID quant.OrderID
	Volume  quant.Volume
}

func (e *ReduceOrderEvent) GetType() Type {
	return TypeReduceOrder
}
