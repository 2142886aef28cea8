package matching

import (
	"encoding/json"
	"fmt"
	"testing"

	eventsv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/events/v1"
	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder captures the emitted stream in order.
type eventRecorder struct {
	events []eventsv1.Event
}

func (r *eventRecorder) Publish(event eventsv1.Event) {
	r.events = append(r.events, event)
}

type matcherFixture struct {
	matcher  *Matcher
	book     *orderbook.Orderbook
	recorder *eventRecorder
	sequence int64
}

func newMatcherFixture() *matcherFixture {
	book := orderbook.NewOrderbook("BTC-USD")
	recorder := &eventRecorder{}
	matcher := NewMatcher("BTC-USD", book, recorder, WithClock(func() int64 { return 1_700_000_000 }))
	return &matcherFixture{matcher: matcher, book: book, recorder: recorder}
}

func (f *matcherFixture) submit(t *testing.T, id string, side orderbookv1.Side, orderType orderbookv1.OrderType, price, quantity int64) *orderbookv1.SubmissionResult {
	t.Helper()

	f.sequence++
	order := orderbookv1.NewOrder(id, "user-"+id, "BTC-USD", side, orderType, price, quantity, f.sequence)
	order.Sequence = f.sequence

	result, err := f.matcher.Submit(order)
	require.NoError(t, err)
	return result
}

// Test 1: First limit rests, a crossing limit trades at the maker price
// and the residual rests
func TestMatcher_LimitCrossPartialFill(t *testing.T) {
	f := newMatcherFixture()

	rested := f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 10)
	assert.Equal(t, orderbookv1.DispositionResting, rested.Disposition)
	assert.Empty(t, rested.Trades)

	result := f.submit(t, "sell1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5)
	assert.Equal(t, orderbookv1.DispositionFilled, result.Disposition)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, int64(5), result.Trades[0].Quantity)
	assert.Equal(t, int64(100), result.Trades[0].Price)
	assert.Equal(t, "sell1", result.Trades[0].TakerOrderID)
	assert.Equal(t, "buy1", result.Trades[0].MakerOrderID)

	// the maker keeps resting with the residual
	assert.Equal(t, int64(5), f.book.LevelVolume(orderbookv1.SideBuy, 100))
}

// Test 2: Time priority among makers at the same price
func TestMatcher_TimePriority(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 10)
	f.submit(t, "buy2", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 5)

	result := f.submit(t, "sell1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 99, 12)
	assert.Equal(t, orderbookv1.DispositionFilled, result.Disposition)
	require.Len(t, result.Trades, 2)

	// the older order fills first and in full
	assert.Equal(t, "buy1", result.Trades[0].MakerOrderID)
	assert.Equal(t, int64(10), result.Trades[0].Quantity)
	assert.Equal(t, "buy2", result.Trades[1].MakerOrderID)
	assert.Equal(t, int64(2), result.Trades[1].Quantity)

	// both executions happen at the makers' price, not the taker's
	assert.Equal(t, int64(100), result.Trades[0].Price)
	assert.Equal(t, int64(100), result.Trades[1].Price)

	assert.Equal(t, int64(3), f.book.LevelVolume(orderbookv1.SideBuy, 100))
}

// Test 3: Price priority walks the best levels first
func TestMatcher_PricePriority(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 101, 5)
	f.submit(t, "ask2", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5)
	f.submit(t, "ask3", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 102, 5)

	result := f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeMarket, 0, 12)
	assert.Equal(t, orderbookv1.DispositionFilled, result.Disposition)
	require.Len(t, result.Trades, 3)

	assert.Equal(t, int64(100), result.Trades[0].Price)
	assert.Equal(t, int64(101), result.Trades[1].Price)
	assert.Equal(t, int64(102), result.Trades[2].Price)
	assert.Equal(t, int64(2), result.Trades[2].Quantity)
}

// Test 4: FOK with insufficient depth is rejected and mutates nothing
func TestMatcher_FOKRejected(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 10, 50)
	eventsBefore := len(f.recorder.events)

	result := f.submit(t, "fok1", orderbookv1.SideBuy, orderbookv1.OrderTypeFOK, 10, 60)
	assert.Equal(t, orderbookv1.DispositionRejected, result.Disposition)
	assert.Empty(t, result.Trades)
	assert.Equal(t, int64(60), result.RemainingQuantity)

	// book unchanged, only the rejection update was emitted
	assert.Equal(t, int64(50), f.book.LevelVolume(orderbookv1.SideSell, 10))
	assert.True(t, f.book.Contains("ask1"))
	require.Len(t, f.recorder.events, eventsBefore+1)
	assert.Equal(t, eventsv1.KindOrderUpdate, f.recorder.events[eventsBefore].Kind)
}

// Test 5: FOK with sufficient depth fills atomically across levels
func TestMatcher_FOKFilled(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 10, 50)
	f.submit(t, "ask2", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 11, 30)

	result := f.submit(t, "fok1", orderbookv1.SideBuy, orderbookv1.OrderTypeFOK, 11, 60)
	assert.Equal(t, orderbookv1.DispositionFilled, result.Disposition)
	assert.Equal(t, int64(60), result.FilledQuantity)
	require.Len(t, result.Trades, 2)
	assert.Equal(t, int64(50), result.Trades[0].Quantity)
	assert.Equal(t, int64(10), result.Trades[1].Quantity)
}

// Test 6: Deep FOK feasibility ignores levels beyond the limit
func TestMatcher_FOKRespectsLimit(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 10, 50)
	f.submit(t, "ask2", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 12, 50)

	// enough total depth, but not within the limit price
	result := f.submit(t, "fok1", orderbookv1.SideBuy, orderbookv1.OrderTypeFOK, 11, 60)
	assert.Equal(t, orderbookv1.DispositionRejected, result.Disposition)
	assert.Equal(t, int64(50), f.book.LevelVolume(orderbookv1.SideSell, 10))
	assert.Equal(t, int64(50), f.book.LevelVolume(orderbookv1.SideSell, 12))
}

// Test 7: IOC sweeps every marketable level, the residual is discarded
func TestMatcher_IOCSweep(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 10, 30)
	f.submit(t, "ask2", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 11, 40)

	result := f.submit(t, "ioc1", orderbookv1.SideBuy, orderbookv1.OrderTypeIOC, 11, 50)
	assert.Equal(t, orderbookv1.DispositionFilled, result.Disposition)
	require.Len(t, result.Trades, 2)
	assert.Equal(t, int64(30), result.Trades[0].Quantity)
	assert.Equal(t, int64(10), result.Trades[0].Price)
	assert.Equal(t, int64(20), result.Trades[1].Quantity)
	assert.Equal(t, int64(11), result.Trades[1].Price)

	assert.Equal(t, int64(20), f.book.LevelVolume(orderbookv1.SideSell, 11))
}

// Test 8: IOC residual beyond marketable depth is cancelled, never rests
func TestMatcher_IOCResidualCancelled(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 10, 30)

	result := f.submit(t, "ioc1", orderbookv1.SideBuy, orderbookv1.OrderTypeIOC, 10, 50)
	assert.Equal(t, orderbookv1.DispositionCancelled, result.Disposition)
	assert.Equal(t, int64(30), result.FilledQuantity)
	assert.Equal(t, int64(20), result.RemainingQuantity)

	assert.False(t, f.book.Contains("ioc1"))
	_, hasBids := f.book.Best(orderbookv1.SideBuy)
	assert.False(t, hasBids)
}

// Test 9: Market order against an empty opposing side is cancelled
func TestMatcher_MarketNoLiquidity(t *testing.T) {
	f := newMatcherFixture()

	result := f.submit(t, "mkt1", orderbookv1.SideBuy, orderbookv1.OrderTypeMarket, 0, 20)
	assert.Equal(t, orderbookv1.DispositionCancelled, result.Disposition)
	assert.Empty(t, result.Trades)
	assert.Equal(t, int64(0), result.FilledQuantity)
}

// Test 10: Submitting an id that is still resting fails
func TestMatcher_DuplicateOrderID(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "order1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 10)

	dup := orderbookv1.NewOrder("order1", "user2", "BTC-USD", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 200, 5, 99)
	_, err := f.matcher.Submit(dup)
	assert.ErrorIs(t, err, orderbookv1.ErrDuplicateOrderID)

	// the original keeps resting untouched
	assert.Equal(t, int64(10), f.book.LevelVolume(orderbookv1.SideBuy, 100))
}

// Test 11: Invalid orders never reach the book
func TestMatcher_InvalidOrder(t *testing.T) {
	f := newMatcherFixture()

	bad := orderbookv1.NewOrder("order1", "user1", "BTC-USD", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 0, 10, 1)
	_, err := f.matcher.Submit(bad)
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidOrder)
	assert.Empty(t, f.recorder.events)
}

// Test 12: Cancel removes a resting order, cancel after a full fill fails
func TestMatcher_Cancel(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 10)

	cancelled, err := f.matcher.Cancel("buy1")
	require.NoError(t, err)
	assert.Equal(t, "buy1", cancelled.ID)
	assert.False(t, f.book.Contains("buy1"))

	// fully matched orders are gone from the book
	f.submit(t, "buy2", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 10)
	f.submit(t, "sell1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 10)

	_, err = f.matcher.Cancel("buy2")
	assert.ErrorIs(t, err, orderbookv1.ErrOrderNotFound)

	_, err = f.matcher.Cancel("missing")
	assert.ErrorIs(t, err, orderbookv1.ErrOrderNotFound)
}

// Test 13: No trade-through, the book never ends up crossed
func TestMatcher_NoTradeThrough(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5)
	f.submit(t, "ask2", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 105, 5)
	f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 103, 12)

	// the buy consumed the 100 level and rests at 103, below the next ask
	bestBid, ok := f.book.Best(orderbookv1.SideBuy)
	require.True(t, ok)
	bestAsk, ok := f.book.Best(orderbookv1.SideSell)
	require.True(t, ok)
	assert.Less(t, bestBid, bestAsk)
	assert.Equal(t, int64(103), bestBid)
	assert.Equal(t, int64(105), bestAsk)
}

// Test 14: Event stream carries trades, deltas and the disposition in
// emission order with ascending sequences
func TestMatcher_EventOrdering(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5)
	f.recorder.events = nil

	f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 5)

	kinds := make([]eventsv1.Kind, 0, len(f.recorder.events))
	for _, event := range f.recorder.events {
		kinds = append(kinds, event.Kind)
	}
	assert.Equal(t, []eventsv1.Kind{
		eventsv1.KindTradeExecuted,
		eventsv1.KindBookDelta,
		eventsv1.KindOrderUpdate,
	}, kinds)

	for i := 1; i < len(f.recorder.events); i++ {
		assert.Greater(t, f.recorder.events[i].Sequence, f.recorder.events[i-1].Sequence)
	}

	// the delta reports the destroyed level as zero quantity
	assert.Equal(t, int64(0), f.recorder.events[1].Delta.LevelQuantity)
}

// Test 15: Conservation, fills against one order never exceed its quantity
func TestMatcher_Conservation(t *testing.T) {
	f := newMatcherFixture()

	for i := 0; i < 10; i++ {
		f.submit(t, fmt.Sprintf("ask%d", i), orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100+int64(i), 7)
	}

	result := f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeMarket, 0, 50)

	var total int64
	for _, trade := range result.Trades {
		assert.Greater(t, trade.Quantity, int64(0))
		total += trade.Quantity
	}
	assert.Equal(t, int64(50), total)
	assert.Equal(t, result.FilledQuantity, total)
}

// Test 16: Replaying the same submission stream yields byte-identical
// trades and events
func TestMatcher_DeterministicReplay(t *testing.T) {
	run := func() ([]byte, []byte) {
		f := newMatcherFixture()

		f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 100, 10)
		f.submit(t, "buy2", orderbookv1.SideBuy, orderbookv1.OrderTypeLimit, 99, 8)
		f.submit(t, "sell1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 99, 12)
		f.submit(t, "sell2", orderbookv1.SideSell, orderbookv1.OrderTypeIOC, 99, 4)
		_, err := f.matcher.Cancel("buy2")
		require.NoError(t, err)
		f.submit(t, "sell3", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 101, 4)

		events, err := json.Marshal(f.recorder.events)
		require.NoError(t, err)
		bids, asks := f.book.Depth(0)
		book, err := json.Marshal(struct {
			Bids, Asks []orderbookv1.LevelSummary
		}{bids, asks})
		require.NoError(t, err)
		return events, book
	}

	events1, book1 := run()
	events2, book2 := run()
	assert.Equal(t, events1, events2)
	assert.Equal(t, book1, book2)
}

// Test 17: Trade ids derive from the match sequence
func TestMatcher_TradeIDs(t *testing.T) {
	f := newMatcherFixture()

	f.submit(t, "ask1", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5)
	f.submit(t, "ask2", orderbookv1.SideSell, orderbookv1.OrderTypeLimit, 100, 5)
	result := f.submit(t, "buy1", orderbookv1.SideBuy, orderbookv1.OrderTypeMarket, 0, 10)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, "BTC-USD-T1", result.Trades[0].ID)
	assert.Equal(t, "BTC-USD-T2", result.Trades[1].ID)
	assert.Equal(t, int64(2), f.matcher.TradeSequence())
}
