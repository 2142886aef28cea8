package orderbookv1

// LevelSummary is an aggregated view of one price level, used for depth
// snapshots and book-delta events.
type LevelSummary struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// Orderbook is the per-instrument book contract the matching state
// machine runs against. Implementations are owned by a single matching
// context; only read-style methods (Best, Depth, LevelVolume,
// FillableQuantity) may be called from other goroutines.
type Orderbook interface {
	// Insert places a limit order's residual at its price, appended to
	// the tail of that level's queue. Fails with ErrDuplicateOrderID if
	// the id is already indexed.
	Insert(order *Order) error
	// Remove cancels a resting order and destroys its level if emptied.
	// Fails with ErrOrderNotFound for unknown or already terminal ids.
	Remove(orderID string) (*Order, error)
	// Best returns the best price on the given side.
	Best(side Side) (price int64, ok bool)
	// PeekTop returns the level an incoming order matches against next.
	PeekTop(side Side) *PriceLevel
	// PopTopHead removes the fully filled head order of the best level
	// on the given side, dropping the level itself when emptied.
	PopTopHead(side Side) (*Order, error)
	// LevelVolume returns the remaining volume resting at a price, 0 if
	// the level no longer exists.
	LevelVolume(side Side, price int64) int64
	// FillableQuantity walks the given side read-only and sums the
	// volume marketable against the limit (every level for market
	// orders). The book is left byte-for-byte unchanged.
	FillableQuantity(side Side, limit int64, market bool) int64
	// Contains reports whether an order id is resting in the book.
	Contains(orderID string) bool
	// Depth returns up to n aggregated levels per side, bids descending
	// and asks ascending.
	Depth(n int) (bids []LevelSummary, asks []LevelSummary)
	// RestingOrders returns every resting order in deterministic
	// (sequence) order, for snapshots.
	RestingOrders() []*Order
}
