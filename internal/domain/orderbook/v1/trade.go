package orderbookv1

import "fmt"

// Trade is an immutable execution record. The price is always the
// maker's (resting) price, so price improvement accrues to the taker.
type Trade struct {
	ID           string `json:"id"`
	Instrument   string `json:"instrument"`
	TakerOrderID string `json:"takerOrderID"`
	MakerOrderID string `json:"makerOrderID"`
	TakerSide    Side   `json:"takerSide"`
	Price        int64  `json:"price"`
	Quantity     int64  `json:"quantity"`
	Sequence     int64  `json:"sequence"`
	Timestamp    int64  `json:"timestamp"`
}

// TradeID derives the trade identifier from the match sequence. Ids
// must be reproducible so that replaying the same submission stream
// yields identical trades.
func TradeID(instrument string, sequence int64) string {
	return fmt.Sprintf("%s-T%d", instrument, sequence)
}

// SubmissionResult is returned to the caller of Submit: the final
// disposition plus every trade the order generated, in match order.
type SubmissionResult struct {
	OrderID           string      `json:"orderID"`
	Disposition       Disposition `json:"disposition"`
	FilledQuantity    int64       `json:"filledQuantity"`
	RemainingQuantity int64       `json:"remainingQuantity"`
	Trades            []Trade     `json:"trades"`
}
