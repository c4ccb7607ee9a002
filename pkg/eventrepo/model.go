package eventrepo

import "time"

// TradeEvent is the persisted image of one trade, written by the
// worker from the kafka stream. The book is authoritative; this table
// exists for surveillance and reconciliation queries.
type TradeEvent struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Instrument uint64    `gorm:"index" json:"instrument"`
	BidOrderID uint64    `json:"bid_order_id"`
	AskOrderID uint64    `json:"ask_order_id"`
	Price      uint64    `json:"price"`
	Quantity   uint64    `json:"quantity"`
	Sequence   uint64    `gorm:"index" json:"sequence"`
	TradedAt   time.Time `json:"traded_at"`
	CreatedAt  time.Time
}

func (TradeEvent) TableName() string {
	return "trade_events"
}
