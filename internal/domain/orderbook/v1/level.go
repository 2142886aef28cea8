package orderbookv1

import "fmt"

// PriceLevel is a FIFO queue of resting orders at one exact price.
// Levels are owned by the book, which is owned by a single matching
// context per instrument, so no locking happens here.
type PriceLevel struct {
	Price       int64    `json:"price"`
	Orders      []*Order `json:"orders"`
	TotalVolume int64    `json:"totalVolume"`
}

// NewPriceLevel creates an empty level at the given price.
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: make([]*Order, 0, 4),
	}
}

// Append adds an order to the tail of the queue, preserving time priority.
func (l *PriceLevel) Append(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.Price != l.Price && order.Type != OrderTypeMarket {
		return fmt.Errorf("%w: order price %d does not match level price %d", ErrInvalidOrder, order.Price, l.Price)
	}
	l.Orders = append(l.Orders, order)
	l.TotalVolume += order.Remaining
	return nil
}

// Head returns the oldest resting order, or nil when the level is empty.
func (l *PriceLevel) Head() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// Reduce subtracts executed quantity from the level's running volume
// after the head order has been partially or fully filled.
func (l *PriceLevel) Reduce(executed int64) {
	l.TotalVolume -= executed
}

// PopHead removes the head order from the queue. The caller is
// responsible for having accounted its volume via Reduce.
func (l *PriceLevel) PopHead() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	head := l.Orders[0]
	l.Orders = l.Orders[1:]
	return head
}

// Remove deletes the order with the given id wherever it sits in the
// queue. Used by cancel; matching only ever touches the head.
func (l *PriceLevel) Remove(orderID string) *Order {
	for i, o := range l.Orders {
		if o.ID == orderID {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalVolume -= o.Remaining
			return o
		}
	}
	return nil
}

// IsEmpty reports whether the level holds no orders. An empty level
// must be destroyed by the book immediately.
func (l *PriceLevel) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of resting orders at this level.
func (l *PriceLevel) OrderCount() int {
	return len(l.Orders)
}
