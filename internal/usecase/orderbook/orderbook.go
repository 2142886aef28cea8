package orderbook

import (
	"sort"
	"sync"

	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
	"github.com/google/btree"
)

const btreeDegree = 32

// Orderbook is the per-instrument book: two btrees of price levels
// (bids descending, asks ascending) plus an order-id index for
// O(log n) cancel. All mutation is serialized by the owning engine
// goroutine; the mutex only guards structural reads (depth, best)
// issued from other goroutines.
type Orderbook struct {
	instrument string

	mu    sync.RWMutex
	bids  *btree.BTreeG[*orderbookv1.PriceLevel]
	asks  *btree.BTreeG[*orderbookv1.PriceLevel]
	index map[string]*orderbookv1.Order
}

// NewOrderbook creates an empty book for one instrument.
func NewOrderbook(instrument string) *Orderbook {
	return &Orderbook{
		instrument: instrument,
		bids: btree.NewG(btreeDegree, func(a, b *orderbookv1.PriceLevel) bool {
			return a.Price > b.Price // best bid first
		}),
		asks: btree.NewG(btreeDegree, func(a, b *orderbookv1.PriceLevel) bool {
			return a.Price < b.Price // best ask first
		}),
		index: make(map[string]*orderbookv1.Order),
	}
}

// Instrument returns the instrument this book belongs to.
func (ob *Orderbook) Instrument() string {
	return ob.instrument
}

func (ob *Orderbook) tree(side orderbookv1.Side) *btree.BTreeG[*orderbookv1.PriceLevel] {
	if side == orderbookv1.SideBuy {
		return ob.bids
	}
	return ob.asks
}

// Insert places a limit order's residual at its price, appended to the
// tail of that level's queue.
func (ob *Orderbook) Insert(order *orderbookv1.Order) error {
	if order == nil {
		return orderbookv1.ErrNilOrder
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, exists := ob.index[order.ID]; exists {
		return orderbookv1.ErrDuplicateOrderID
	}

	tree := ob.tree(order.Side)
	probe := &orderbookv1.PriceLevel{Price: order.Price}

	level, exists := tree.Get(probe)
	if !exists {
		level = orderbookv1.NewPriceLevel(order.Price)
		tree.ReplaceOrInsert(level)
	}

	if err := level.Append(order); err != nil {
		return err
	}
	ob.index[order.ID] = order
	return nil
}

// Remove cancels a resting order, destroying its level if emptied.
func (ob *Orderbook) Remove(orderID string) (*orderbookv1.Order, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, exists := ob.index[orderID]
	if !exists {
		return nil, orderbookv1.ErrOrderNotFound
	}

	tree := ob.tree(order.Side)
	level, exists := tree.Get(&orderbookv1.PriceLevel{Price: order.Price})
	if !exists {
		// index and trees are mutated together, so this is unreachable
		delete(ob.index, orderID)
		return nil, orderbookv1.ErrOrderNotFound
	}

	removed := level.Remove(orderID)
	if removed == nil {
		delete(ob.index, orderID)
		return nil, orderbookv1.ErrOrderNotFound
	}

	if level.IsEmpty() {
		tree.Delete(level)
	}
	delete(ob.index, orderID)
	return removed, nil
}

// Best returns the best price on the given side.
func (ob *Orderbook) Best(side orderbookv1.Side) (int64, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	level, ok := ob.tree(side).Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// PeekTop returns the best level on the given side, or nil.
func (ob *Orderbook) PeekTop(side orderbookv1.Side) *orderbookv1.PriceLevel {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	level, ok := ob.tree(side).Min()
	if !ok {
		return nil
	}
	return level
}

// PopTopHead removes the head order of the best level on the given
// side, dropping the level when it empties. Called by the matching
// loop once the head order is fully filled.
func (ob *Orderbook) PopTopHead(side orderbookv1.Side) (*orderbookv1.Order, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	tree := ob.tree(side)
	level, ok := tree.Min()
	if !ok {
		return nil, orderbookv1.ErrOrderNotFound
	}

	head := level.PopHead()
	if head == nil {
		return nil, orderbookv1.ErrOrderNotFound
	}

	if level.IsEmpty() {
		tree.Delete(level)
	}
	delete(ob.index, head.ID)
	return head, nil
}

// LevelVolume returns the remaining volume resting at a price, 0 if
// the level no longer exists.
func (ob *Orderbook) LevelVolume(side orderbookv1.Side, price int64) int64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	level, ok := ob.tree(side).Get(&orderbookv1.PriceLevel{Price: price})
	if !ok {
		return 0
	}
	return level.TotalVolume
}

// Contains reports whether an order id is resting in the book.
func (ob *Orderbook) Contains(orderID string) bool {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	_, exists := ob.index[orderID]
	return exists
}

// FillableQuantity walks the given side read-only and sums the volume
// marketable against the limit. Used for the FOK feasibility check; it
// never mutates book state.
func (ob *Orderbook) FillableQuantity(side orderbookv1.Side, limit int64, market bool) int64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	var available int64
	ob.tree(side).Ascend(func(level *orderbookv1.PriceLevel) bool {
		if !market {
			// walking asks: marketable while level price <= limit;
			// walking bids: marketable while level price >= limit
			if side == orderbookv1.SideSell && level.Price > limit {
				return false
			}
			if side == orderbookv1.SideBuy && level.Price < limit {
				return false
			}
		}
		available += level.TotalVolume
		return true
	})
	return available
}

// Depth returns up to n aggregated levels per side, bids descending and
// asks ascending. n <= 0 returns every level.
func (ob *Orderbook) Depth(n int) ([]orderbookv1.LevelSummary, []orderbookv1.LevelSummary) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	collect := func(tree *btree.BTreeG[*orderbookv1.PriceLevel]) []orderbookv1.LevelSummary {
		out := make([]orderbookv1.LevelSummary, 0, n)
		tree.Ascend(func(level *orderbookv1.PriceLevel) bool {
			if n > 0 && len(out) >= n {
				return false
			}
			out = append(out, orderbookv1.LevelSummary{
				Price:    level.Price,
				Quantity: level.TotalVolume,
			})
			return true
		})
		return out
	}
	return collect(ob.bids), collect(ob.asks)
}

// RestingOrders returns every resting order sorted by sequence number,
// so snapshots of the same book state are always identical.
func (ob *Orderbook) RestingOrders() []*orderbookv1.Order {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	orders := make([]*orderbookv1.Order, 0, len(ob.index))
	for _, order := range ob.index {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Sequence < orders[j].Sequence
	})
	return orders
}

// Len returns the number of resting orders.
func (ob *Orderbook) Len() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return len(ob.index)
}

var _ orderbookv1.Orderbook = (*Orderbook)(nil)
