package orderbookv1

import (
	"errors"
	"fmt"
)

var (
	// ErrNilOrder is returned when an operation receives a nil order.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrInvalidOrder is returned when an order fails admission validation.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrDuplicateOrderID is returned when an order id is already present in the book.
	ErrDuplicateOrderID = errors.New("duplicate order id")
	// ErrOrderNotFound is returned when a cancel targets an unknown or already terminal order.
	ErrOrderNotFound = errors.New("order not found")
)

// Side represents which side of the book an order belongs to.
type Side string

const (
	// SideBuy represents a buy (bid) order.
	SideBuy Side = "buy"
	// SideSell represents a sell (ask) order.
	SideSell Side = "sell"
)

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType represents the lifetime semantics of an order.
type OrderType string

const (
	// OrderTypeMarket represents a market order: match at any price, discard the rest.
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit represents a limit order: match up to the limit price, rest the remainder.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeIOC represents an immediate-or-cancel order: match what is possible, cancel the rest.
	OrderTypeIOC OrderType = "ioc"
	// OrderTypeFOK represents a fill-or-kill order: match fully and atomically, or not at all.
	OrderTypeFOK OrderType = "fok"
)

// Priced reports whether the order type requires a limit price.
func (t OrderType) Priced() bool {
	return t == OrderTypeLimit || t == OrderTypeIOC || t == OrderTypeFOK
}

// Disposition is the final state of a submitted order.
type Disposition string

const (
	// DispositionFilled means the order matched its full quantity.
	DispositionFilled Disposition = "filled"
	// DispositionResting means the residual was placed in the book.
	DispositionResting Disposition = "resting"
	// DispositionCancelled means the residual was discarded (market/IOC) or the order was cancelled.
	DispositionCancelled Disposition = "cancelled"
	// DispositionRejected means the order was refused before any book mutation.
	DispositionRejected Disposition = "rejected"
)

// Order represents a single order admitted to matching. Prices and
// quantities are fixed-point int64 ticks; floats never enter the
// matching path.
type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userID"`
	Instrument string    `json:"instrument"`
	Side       Side      `json:"side"`
	Type       OrderType `json:"type"`
	Price      int64     `json:"price"` // 0 for market orders
	Quantity   int64     `json:"quantity"`
	Remaining  int64     `json:"remaining"`
	Sequence   int64     `json:"sequence"` // assigned once at admission, sole time-priority tie-breaker
	Timestamp  int64     `json:"timestamp"`
}

// NewOrder creates a new order with remaining quantity equal to its
// original quantity. The sequence number is assigned later, by the
// engine loop, at the instant of admission.
func NewOrder(id, userID, instrument string, side Side, orderType OrderType, price, quantity, timestamp int64) *Order {
	return &Order{
		ID:         id,
		UserID:     userID,
		Instrument: instrument,
		Side:       side,
		Type:       orderType,
		Price:      price,
		Quantity:   quantity,
		Remaining:  quantity,
		Timestamp:  timestamp,
	}
}

// Validate checks the order's admission invariants. It must pass before
// any book mutation happens.
func (o *Order) Validate() error {
	if o == nil {
		return ErrNilOrder
	}
	if o.ID == "" {
		return fmt.Errorf("%w: order id cannot be empty", ErrInvalidOrder)
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, o.Side)
	}
	switch o.Type {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeIOC, OrderTypeFOK:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidOrder, o.Type)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, o.Quantity)
	}
	if o.Type.Priced() && o.Price <= 0 {
		return fmt.Errorf("%w: %s orders require a positive limit price", ErrInvalidOrder, o.Type)
	}
	return nil
}

// Fill decrements the remaining quantity by executed.
func (o *Order) Fill(executed int64) {
	o.Remaining -= executed
}

// Filled returns the executed quantity so far.
func (o *Order) Filled() int64 {
	return o.Quantity - o.Remaining
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

// Marketable reports whether the order can trade against an opposing
// level at the given price. Market orders are marketable against any
// non-empty level.
func (o *Order) Marketable(levelPrice int64) bool {
	if o.Type == OrderTypeMarket {
		return true
	}
	if o.Side == SideBuy {
		return levelPrice <= o.Price
	}
	return levelPrice >= o.Price
}
