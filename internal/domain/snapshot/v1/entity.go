package snapshotv1

import orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"

// Snapshot represents the engine state at a specific point of the
// inbound stream.
type Snapshot struct {
	Instrument        string            `json:"instrument"`
	OrderOffset       int64             `json:"orderOffset"`
	OrderBookSnapshot OrderBookSnapshot `json:"orderBookSnapshot"`
}

// OrderBookSnapshot captures every resting order plus the counters
// needed to resume deterministic matching.
type OrderBookSnapshot struct {
	Orders        []BookOrder `json:"orders"`
	OrderSequence int64       `json:"orderSequence"`
	TradeSequence int64       `json:"tradeSequence"`
	EventSequence int64       `json:"eventSequence"`
}

// BookOrder represents one resting order in the snapshot.
type BookOrder struct {
	OrderID   string           `json:"orderID"`
	UserID    string           `json:"userID"`
	Side      orderbookv1.Side `json:"side"`
	Price     int64            `json:"price"`
	Quantity  int64            `json:"quantity"`
	Remaining int64            `json:"remaining"`
	Sequence  int64            `json:"sequence"`
	Timestamp int64            `json:"timestamp"`
}
