package matching

import (
	"time"

	eventsv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/events/v1"
	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
)

// Clock returns the timestamp stamped on trades. It is injectable so
// replaying an identical submission stream produces identical trades.
type Clock func() int64

// Option customizes a Matcher.
type Option func(*Matcher)

// WithClock overrides the trade timestamp source.
func WithClock(clock Clock) Option {
	return func(m *Matcher) {
		m.now = clock
	}
}

// Matcher is the per-instrument matching state machine. It consumes
// one admitted order at a time, walks the opposing side's best levels
// under strict price-time priority, and emits trades, book deltas and
// the final disposition through the event stream, in match order.
//
// The matcher must only ever be driven by the single engine goroutine
// that owns the instrument.
type Matcher struct {
	instrument string
	book       orderbookv1.Orderbook
	stream     eventsv1.Publisher

	tradeSequence int64
	eventSequence int64
	now           Clock
}

// NewMatcher creates a matcher bound to one instrument's book.
func NewMatcher(instrument string, book orderbookv1.Orderbook, stream eventsv1.Publisher, opts ...Option) *Matcher {
	m := &Matcher{
		instrument: instrument,
		book:       book,
		stream:     stream,
		now:        func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit runs one order through admission validation, the order-type
// policy and the matching loop. Validation failures surface as errors
// before any book mutation; an infeasible FOK yields a Rejected result
// with the book byte-for-byte unchanged.
func (m *Matcher) Submit(order *orderbookv1.Order) (*orderbookv1.SubmissionResult, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if m.book.Contains(order.ID) {
		return nil, orderbookv1.ErrDuplicateOrderID
	}

	opposing := order.Side.Opposite()

	// FOK feasibility: a dry-run walk of the opposing depth. Nothing
	// is mutated until the full quantity is known to be fillable.
	if order.Type == orderbookv1.OrderTypeFOK {
		available := m.book.FillableQuantity(opposing, order.Price, false)
		if available < order.Quantity {
			result := &orderbookv1.SubmissionResult{
				OrderID:           order.ID,
				Disposition:       orderbookv1.DispositionRejected,
				RemainingQuantity: order.Remaining,
			}
			m.emitOrderUpdate(order, orderbookv1.DispositionRejected)
			return result, nil
		}
	}

	trades := m.match(order, opposing)

	disposition := m.disposeResidual(order)
	m.emitOrderUpdate(order, disposition)

	return &orderbookv1.SubmissionResult{
		OrderID:           order.ID,
		Disposition:       disposition,
		FilledQuantity:    order.Filled(),
		RemainingQuantity: order.Remaining,
		Trades:            trades,
	}, nil
}

// match walks the opposing best levels while the incoming order is
// marketable, always trading with the head of the level's FIFO queue
// at the maker's price.
func (m *Matcher) match(order *orderbookv1.Order, opposing orderbookv1.Side) []orderbookv1.Trade {
	var trades []orderbookv1.Trade

	for !order.IsFilled() {
		level := m.book.PeekTop(opposing)
		if level == nil || !order.Marketable(level.Price) {
			break
		}

		maker := level.Head()
		executed := min(order.Remaining, maker.Remaining)

		m.tradeSequence++
		trade := orderbookv1.Trade{
			ID:           orderbookv1.TradeID(m.instrument, m.tradeSequence),
			Instrument:   m.instrument,
			TakerOrderID: order.ID,
			MakerOrderID: maker.ID,
			TakerSide:    order.Side,
			Price:        level.Price,
			Quantity:     executed,
			Sequence:     m.tradeSequence,
			Timestamp:    m.now(),
		}

		order.Fill(executed)
		maker.Fill(executed)
		level.Reduce(executed)

		if maker.IsFilled() {
			// also destroys the level once its queue empties
			if _, err := m.book.PopTopHead(opposing); err != nil {
				// head existence was checked above; cannot happen
				break
			}
		}

		trades = append(trades, trade)
		m.emitTrade(&trade)
		m.emitBookDelta(opposing, trade.Price)
	}

	return trades
}

// disposeResidual applies the order-type policy to whatever is left of
// the incoming order after matching.
func (m *Matcher) disposeResidual(order *orderbookv1.Order) orderbookv1.Disposition {
	if order.IsFilled() {
		return orderbookv1.DispositionFilled
	}

	switch order.Type {
	case orderbookv1.OrderTypeLimit:
		if err := m.book.Insert(order); err != nil {
			// duplicate ids are rejected before matching, so insert
			// cannot fail here; treat defensively as a cancel
			return orderbookv1.DispositionCancelled
		}
		m.emitBookDelta(order.Side, order.Price)
		return orderbookv1.DispositionResting
	default:
		// market and IOC residuals are discarded; an FOK that passed
		// its feasibility check never has a residual
		return orderbookv1.DispositionCancelled
	}
}

// Cancel removes a resting order. A cancel that lost the race against
// matching fails with ErrOrderNotFound, resolved deterministically by
// arrival order in the engine's serialized stream.
func (m *Matcher) Cancel(orderID string) (*orderbookv1.Order, error) {
	order, err := m.book.Remove(orderID)
	if err != nil {
		return nil, err
	}

	m.emitBookDelta(order.Side, order.Price)
	m.emitOrderUpdate(order, orderbookv1.DispositionCancelled)
	return order, nil
}

// TradeSequence returns the last assigned trade sequence number.
func (m *Matcher) TradeSequence() int64 {
	return m.tradeSequence
}

// EventSequence returns the last assigned emission sequence number.
func (m *Matcher) EventSequence() int64 {
	return m.eventSequence
}

// RestoreSequences resets the counters when resuming from a snapshot.
func (m *Matcher) RestoreSequences(tradeSequence, eventSequence int64) {
	m.tradeSequence = tradeSequence
	m.eventSequence = eventSequence
}

func (m *Matcher) emitTrade(trade *orderbookv1.Trade) {
	m.eventSequence++
	m.stream.Publish(eventsv1.Event{
		Kind:       eventsv1.KindTradeExecuted,
		Instrument: m.instrument,
		Sequence:   m.eventSequence,
		Trade:      trade,
	})
}

func (m *Matcher) emitBookDelta(side orderbookv1.Side, price int64) {
	m.eventSequence++
	m.stream.Publish(eventsv1.Event{
		Kind:       eventsv1.KindBookDelta,
		Instrument: m.instrument,
		Sequence:   m.eventSequence,
		Delta: &eventsv1.BookDelta{
			Instrument:    m.instrument,
			Side:          side,
			Price:         price,
			LevelQuantity: m.book.LevelVolume(side, price),
		},
	})
}

func (m *Matcher) emitOrderUpdate(order *orderbookv1.Order, disposition orderbookv1.Disposition) {
	m.eventSequence++
	m.stream.Publish(eventsv1.Event{
		Kind:       eventsv1.KindOrderUpdate,
		Instrument: m.instrument,
		Sequence:   m.eventSequence,
		Order: &eventsv1.OrderUpdate{
			OrderID:           order.ID,
			Disposition:       disposition,
			FilledQuantity:    order.Filled(),
			RemainingQuantity: order.Remaining,
		},
	})
}
