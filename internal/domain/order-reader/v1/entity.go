package orderreaderv1

import (
	"encoding/json"

	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
)

// Action discriminates inbound requests on the order topic.
type Action string

const (
	// ActionSubmit admits a new order to matching.
	ActionSubmit Action = "submit"
	// ActionCancel requests removal of a resting order.
	ActionCancel Action = "cancel"
)

// OrderPayload is the JSON wire format of one order-entry request.
// Prices and quantities are fixed-point int64 ticks, same as the
// matching core.
type OrderPayload struct {
	Action     Action                `json:"action"`
	OrderID    string                `json:"orderID"`
	UserID     string                `json:"userID"`
	Instrument string                `json:"instrument"`
	Type       orderbookv1.OrderType `json:"type"`
	Side       orderbookv1.Side      `json:"side"`
	Quantity   int64                 `json:"quantity"`
	Price      int64                 `json:"price"`
	Offset     int64                 `json:"offset"` // position in the inbound stream
}

// ToBytes serializes the payload for the wire.
func ToBytes(payload *OrderPayload) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// FromBytes deserializes a payload from the wire.
func FromBytes(data []byte) (*OrderPayload, error) {
	var payload OrderPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
