package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	eventsv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/events/v1"
	orderreaderv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/snapshot/v1"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/matching"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/config"
	apperrors "github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/errors"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/logger"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/util"
)

// ErrOverloaded signals that the ingress queue is saturated. It is
// backpressure, not a semantic failure: callers retry with their own
// policy.
var ErrOverloaded = errors.New("engine overloaded")

type commandKind int

const (
	cmdSubmit commandKind = iota
	cmdCancel
	cmdSnapshot
)

// SubmitRequest is one order-entry request before admission. The
// sequence number is assigned by the engine loop, never by callers.
type SubmitRequest struct {
	OrderID  string
	UserID   string
	Type     orderbookv1.OrderType
	Side     orderbookv1.Side
	Quantity int64
	Price    int64
}

type response struct {
	result   *orderbookv1.SubmissionResult
	snapshot *snapshotv1.Snapshot
	err      error
}

type command struct {
	kind     commandKind
	submit   *SubmitRequest
	cancelID string
	reply    chan response
}

// Engine owns one instrument's book. Every submit and cancel flows
// through a single bounded queue drained by one goroutine, so matching
// is strictly serialized per instrument: arrival order at the queue is
// the sequence-number assignment order, and a cancel racing a match is
// resolved deterministically by that order.
type Engine struct {
	instrument string

	book          orderbookv1.Orderbook
	matcher       *matching.Matcher
	stream        eventsv1.Stream
	orderReader   orderreaderv1.OrderReader
	snapshotStore snapshotv1.Store
	logger        *logger.Logger
	config        *config.Config

	ingress       chan command
	orderSequence int64 // owned by the matching loop goroutine
	now           matching.Clock

	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64
	requestsProcessed  int64
	totalTrades        int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval   time.Duration
	snapshotOrderDelta int64
}

// NewEngine creates a new Engine with options derived from config.
func NewEngine(
	book orderbookv1.Orderbook,
	stream eventsv1.Stream,
	orderReader orderreaderv1.OrderReader,
	snapshotStore snapshotv1.Store,
	log *logger.Logger,
	cfg *config.Config,
	opts ...*Options,
) *Engine {
	options := DefaultEngineOptions()
	if cfg != nil {
		if cfg.IngressCapacity > 0 {
			options.IngressCapacity = cfg.IngressCapacity
		}
		if cfg.SnapshotIntervalSeconds > 0 {
			options.SnapshotInterval = time.Duration(cfg.SnapshotIntervalSeconds) * time.Second
		}
		if cfg.SnapshotOrderDelta > 0 {
			options.SnapshotOrderDelta = cfg.SnapshotOrderDelta
		}
	}
	if len(opts) > 0 && opts[len(opts)-1] != nil {
		options = opts[len(opts)-1]
	}

	instrument := ""
	if cfg != nil {
		instrument = cfg.Instrument
	}

	now := options.Clock
	if now == nil {
		now = func() int64 { return time.Now().UnixNano() }
	}

	return &Engine{
		instrument:    instrument,
		book:          book,
		matcher:       matching.NewMatcher(instrument, book, stream, matching.WithClock(now)),
		stream:        stream,
		orderReader:   orderReader,
		snapshotStore: snapshotStore,
		logger:        log,
		config:        cfg,

		ingress:     make(chan command, options.IngressCapacity),
		now:         now,
		orderOffset: -1,

		snapshotInterval:   options.SnapshotInterval,
		snapshotOrderDelta: options.SnapshotOrderDelta,
	}
}

// Matcher exposes the underlying state machine, mainly so tests can
// read its sequence counters.
func (e *Engine) Matcher() *matching.Matcher {
	return e.matcher
}

// Start restores the last snapshot and launches the processing
// goroutines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := e.loadSnapshot(e.ctx); err != nil {
		return err
	}

	e.wg.Add(1)
	go e.runMatchingLoop()

	if e.orderReader != nil {
		e.wg.Add(1)
		go e.runOrderProcessor()
	}
	if e.snapshotStore != nil {
		e.wg.Add(1)
		go e.runSnapshotManager()
	}

	e.logger.Info("Matching engine started", logger.Field{
		Key:   "instrument",
		Value: e.instrument,
	})
	return nil
}

// Stop gracefully shuts down the engine.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if closer, ok := e.stream.(interface{ Close() }); ok {
			closer.Close()
		}
		e.logger.Info("Matching engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

// Submit enqueues one order for matching and waits for its result.
// When the ingress queue is full it fails fast with ErrOverloaded
// instead of blocking or dropping.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*orderbookv1.SubmissionResult, error) {
	cmd := command{
		kind:   cmdSubmit,
		submit: &req,
		reply:  make(chan response, 1),
	}

	select {
	case e.ingress <- cmd:
	case <-e.stopped():
		return nil, e.ctx.Err()
	default:
		return nil, ErrOverloaded
	}

	select {
	case resp := <-cmd.reply:
		return resp.result, resp.err
	case <-e.stopped():
		return nil, e.ctx.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests removal of a resting order. A cancel arriving after
// the order fully matched fails with ErrOrderNotFound.
func (e *Engine) Cancel(ctx context.Context, orderID string) error {
	cmd := command{
		kind:     cmdCancel,
		cancelID: orderID,
		reply:    make(chan response, 1),
	}

	select {
	case e.ingress <- cmd:
	case <-e.stopped():
		return e.ctx.Err()
	default:
		return ErrOverloaded
	}

	select {
	case resp := <-cmd.reply:
		return resp.err
	case <-e.stopped():
		return e.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stopped exposes the engine context's done channel; nil (never ready)
// before Start.
func (e *Engine) stopped() <-chan struct{} {
	if e.ctx == nil {
		return nil
	}
	return e.ctx.Done()
}

// Subscribe attaches an external collaborator to the ordered event
// stream.
func (e *Engine) Subscribe() (<-chan eventsv1.Event, func()) {
	return e.stream.Subscribe()
}

// runMatchingLoop drains the ingress queue strictly in arrival order.
// It is the only goroutine that mutates the book.
func (e *Engine) runMatchingLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			e.drainIngress()
			return
		case cmd := <-e.ingress:
			e.handle(cmd)
		}
	}
}

func (e *Engine) handle(cmd command) {
	switch cmd.kind {
	case cmdSubmit:
		result, err := e.processSubmit(cmd.submit)
		cmd.reply <- response{result: result, err: err}
	case cmdCancel:
		_, err := e.matcher.Cancel(cmd.cancelID)
		e.bumpRequestsProcessed()
		cmd.reply <- response{err: err}
	case cmdSnapshot:
		cmd.reply <- response{snapshot: e.buildSnapshot()}
	}
}

func (e *Engine) processSubmit(req *SubmitRequest) (*orderbookv1.SubmissionResult, error) {
	order := orderbookv1.NewOrder(
		req.OrderID,
		req.UserID,
		e.instrument,
		req.Side,
		req.Type,
		req.Price,
		req.Quantity,
		e.now(),
	)
	// next sequence number; consumed only if the order is admitted
	order.Sequence = e.orderSequence + 1

	result, err := e.matcher.Submit(order)
	if err != nil {
		return nil, err
	}
	e.orderSequence++
	e.bumpRequestsProcessed()

	if len(result.Trades) > 0 {
		e.recordTrades(result.Trades)
	}
	return result, nil
}

// drainIngress fails pending requests on shutdown instead of leaving
// callers blocked.
func (e *Engine) drainIngress() {
	for {
		select {
		case cmd := <-e.ingress:
			cmd.reply <- response{err: e.ctx.Err()}
		default:
			return
		}
	}
}

// recordTrades updates statistics and logs executions the way the
// downstream expects to see them.
func (e *Engine) recordTrades(trades []orderbookv1.Trade) {
	e.mu.Lock()
	e.totalTrades += int64(len(trades))
	currentTotal := e.totalTrades
	e.mu.Unlock()

	e.logger.Debug("Trades executed",
		logger.Field{Key: "tradeCount", Value: len(trades)},
		logger.Field{Key: "totalTrades", Value: currentTotal},
	)
}

// runOrderProcessor reads the inbound stream and feeds the matching
// loop, retrying on backpressure.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting order processor", logger.Field{
		Key:   "instrument",
		Value: e.instrument,
	})

	// resume right after the last offset folded into the snapshot
	if currentOffset := e.getOrderOffset(); currentOffset >= 0 {
		if err := e.orderReader.SetOffset(currentOffset + 1); err != nil {
			e.logger.Error(err, logger.Field{Key: "action", Value: "set_order_reader_offset"})
		}
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Order processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, payload, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				if e.ctx.Err() != nil {
					continue
				}
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_order_message",
				})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			// one request id per inbound message, carried through
			// matching and logging
			msgCtx := util.WithRequestID(e.ctx, "")

			if err := e.orderReader.CommitMessages(msgCtx, msg); err != nil {
				e.logger.ErrorContext(msgCtx, err, logger.Field{
					Key:   "action",
					Value: "commit_order_message",
				})
			}

			e.processPayload(msgCtx, payload)
			e.setOrderOffset(msg.Offset)
		}
	}
}

// processPayload translates one inbound payload into a submit or
// cancel, retrying while the ingress queue is saturated. The context
// carries the request id stamped for this message.
func (e *Engine) processPayload(ctx context.Context, payload *orderreaderv1.OrderPayload) {
	for {
		var err error
		switch payload.Action {
		case orderreaderv1.ActionCancel:
			err = e.Cancel(ctx, payload.OrderID)
		default:
			_, err = e.Submit(ctx, SubmitRequest{
				OrderID:  payload.OrderID,
				UserID:   payload.UserID,
				Type:     payload.Type,
				Side:     payload.Side,
				Quantity: payload.Quantity,
				Price:    payload.Price,
			})
		}

		if errors.Is(err, ErrOverloaded) {
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
				continue
			}
		}
		if err != nil && e.ctx.Err() == nil {
			e.logger.ErrorContext(ctx, err,
				logger.Field{Key: "action", Value: "process_order"},
				logger.Field{Key: "code", Value: ErrorCode(err)},
				logger.Field{Key: "orderID", Value: payload.OrderID},
				logger.Field{Key: "offset", Value: payload.Offset},
			)
		}
		return
	}
}

// ErrorCode maps the engine's typed failures onto the wire-level error
// taxonomy reported to operators and upstream services.
func ErrorCode(err error) apperrors.ErrorCode {
	switch {
	case errors.Is(err, orderbookv1.ErrDuplicateOrderID):
		return apperrors.ErrDuplicateOrderID
	case errors.Is(err, orderbookv1.ErrOrderNotFound):
		return apperrors.ErrOrderNotFound
	case errors.Is(err, orderbookv1.ErrInvalidOrder):
		return apperrors.ErrInvalidOrder
	case errors.Is(err, ErrOverloaded):
		return apperrors.ErrEngineOverloaded
	default:
		return apperrors.GeneralInternalServerError
	}
}

// runSnapshotManager periodically captures the book through the
// matching loop (for a consistent view) and stores it outside of it
// (so matching never blocks on Redis).
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshot()
			}
		}
	}
}

func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	delta := e.requestsProcessed - e.lastSnapshotOffset
	return delta >= e.snapshotOrderDelta
}

func (e *Engine) createAndStoreSnapshot() {
	cmd := command{kind: cmdSnapshot, reply: make(chan response, 1)}

	select {
	case e.ingress <- cmd:
	default:
		// queue saturated: skip this cycle rather than add load
		return
	}

	var snapshot *snapshotv1.Snapshot
	select {
	case <-e.ctx.Done():
		return
	case resp := <-cmd.reply:
		snapshot = resp.snapshot
	}
	if snapshot == nil {
		return
	}

	if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
		e.logger.ErrorContext(e.ctx, err, logger.Field{
			Key:   "action",
			Value: "store_snapshot",
		})
		return
	}

	e.mu.Lock()
	e.lastSnapshotOffset = e.requestsProcessed
	e.mu.Unlock()

	e.logger.Info("Snapshot stored",
		logger.Field{Key: "instrument", Value: e.instrument},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
	)
}

// buildSnapshot runs on the matching loop goroutine, so the captured
// book state is consistent.
func (e *Engine) buildSnapshot() *snapshotv1.Snapshot {
	resting := e.book.RestingOrders()
	bookOrders := make([]snapshotv1.BookOrder, 0, len(resting))
	for _, order := range resting {
		bookOrders = append(bookOrders, snapshotv1.BookOrder{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Side:      order.Side,
			Price:     order.Price,
			Quantity:  order.Quantity,
			Remaining: order.Remaining,
			Sequence:  order.Sequence,
			Timestamp: order.Timestamp,
		})
	}

	return &snapshotv1.Snapshot{
		Instrument:  e.instrument,
		OrderOffset: e.getOrderOffset(),
		OrderBookSnapshot: snapshotv1.OrderBookSnapshot{
			Orders:        bookOrders,
			OrderSequence: e.orderSequence,
			TradeSequence: e.matcher.TradeSequence(),
			EventSequence: e.matcher.EventSequence(),
		},
	}
}

// loadSnapshot restores the book and sequence counters. Runs before
// the matching loop starts, so direct book access is safe.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	if e.snapshotStore == nil {
		return nil
	}

	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}

	for _, bookOrder := range snapshot.OrderBookSnapshot.Orders {
		order := &orderbookv1.Order{
			ID:         bookOrder.OrderID,
			UserID:     bookOrder.UserID,
			Instrument: e.instrument,
			Side:       bookOrder.Side,
			Type:       orderbookv1.OrderTypeLimit,
			Price:      bookOrder.Price,
			Quantity:   bookOrder.Quantity,
			Remaining:  bookOrder.Remaining,
			Sequence:   bookOrder.Sequence,
			Timestamp:  bookOrder.Timestamp,
		}
		if err := e.book.Insert(order); err != nil {
			return err
		}
	}

	e.orderSequence = snapshot.OrderBookSnapshot.OrderSequence
	e.matcher.RestoreSequences(
		snapshot.OrderBookSnapshot.TradeSequence,
		snapshot.OrderBookSnapshot.EventSequence,
	)
	e.setOrderOffset(snapshot.OrderOffset)

	e.logger.Info("Book restored from snapshot",
		logger.Field{Key: "instrument", Value: e.instrument},
		logger.Field{Key: "restingOrders", Value: len(snapshot.OrderBookSnapshot.Orders)},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
	)
	return nil
}

func (e *Engine) bumpRequestsProcessed() {
	e.mu.Lock()
	e.requestsProcessed++
	e.mu.Unlock()
}

func (e *Engine) getOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

// GetTotalTrades returns the number of trades executed since start.
func (e *Engine) GetTotalTrades() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalTrades
}

// GetOrderOffset returns the current inbound stream offset.
func (e *Engine) GetOrderOffset() int64 {
	return e.getOrderOffset()
}
