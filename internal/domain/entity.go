package domain

import (
	"time"
)

// BookSnapshot is a persisted aggregated view of one book.
type BookSnapshot struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	BookID   uint16 `gorm:"index" json:"book_id"`
	Symbol   string `json:"symbol"`
	Seq      uint64 `json:"seq"` // last applied event sequence
	Orders   int    `json:"orders"`
	PoolSize int    `json:"pool_size"`
	PoolLive int    `json:"pool_live"`
	PoolFree int    `json:"pool_free"`

	Levels []LevelSnapshot `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE" json:"levels"`

	CreatedAt time.Time `json:"created_at"`
}

// LevelSnapshot is one aggregated price level inside a BookSnapshot.
type LevelSnapshot struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	SnapshotID uint   `gorm:"index" json:"-"`
	Side       string `json:"side"`       // "BID", "ASK"
	Price      int64  `json:"price"`      // ticks
	PriceText  string `json:"price_text"` // ticks * tick size
	Orders     int    `json:"orders"`
	Volume     uint64 `json:"volume"`
}
