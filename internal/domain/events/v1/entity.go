package eventsv1

import (
	"encoding/json"

	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
)

// Kind discriminates the event payload.
type Kind string

const (
	// KindTradeExecuted carries one execution.
	KindTradeExecuted Kind = "trade_executed"
	// KindBookDelta carries the new aggregate quantity of one price level.
	KindBookDelta Kind = "book_delta"
	// KindOrderUpdate carries the final disposition of a submitted or cancelled order.
	KindOrderUpdate Kind = "order_update"
)

// BookDelta describes a change to one price level. LevelQuantity is the
// total remaining volume at that price after the change; 0 means the
// level was destroyed.
type BookDelta struct {
	Instrument    string           `json:"instrument"`
	Side          orderbookv1.Side `json:"side"`
	Price         int64            `json:"price"`
	LevelQuantity int64            `json:"levelQuantity"`
}

// OrderUpdate is the terminal event for one submission or cancel.
type OrderUpdate struct {
	OrderID           string                  `json:"orderID"`
	Disposition       orderbookv1.Disposition `json:"disposition"`
	FilledQuantity    int64                   `json:"filledQuantity"`
	RemainingQuantity int64                   `json:"remainingQuantity"`
}

// Event is one entry of the append-only outbound stream. Exactly one of
// Trade, Delta, Order is set, according to Kind. Sequence is the
// emission sequence: consumers observe events in ascending order,
// matching the order the matching loop produced them.
type Event struct {
	Kind       Kind               `json:"kind"`
	Instrument string             `json:"instrument"`
	Sequence   int64              `json:"sequence"`
	Trade      *orderbookv1.Trade `json:"trade,omitempty"`
	Delta      *BookDelta         `json:"delta,omitempty"`
	Order      *OrderUpdate       `json:"order,omitempty"`
}

// ToBytes serializes the event for the wire.
func ToBytes(event *Event) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return data
}

// FromBytes deserializes an event from the wire.
func FromBytes(data []byte) *Event {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil
	}
	return &event
}
