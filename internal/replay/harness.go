// Package replay implements deterministic application of a historical event
// stream to a matching engine, with per-event analytics capture and optional
// per-trade strategy notification.
package replay

import (
	"github.com/rs/zerolog/log"

	"fenrir/internal/common"
	"fenrir/internal/matching"
)

// StrategyCallback is invoked synchronously, once per trade, in
// trade-emission order, from inside FeedEvents' return path. It must not
// mutate the harness or engine it observes.
type StrategyCallback func(common.TradeEvent)

// Harness owns (or borrows) a matching engine and accumulates the trade log
// and analytics log produced by replaying a historical event stream.
type Harness struct {
	Engine *matching.Engine

	trades    []common.TradeEvent
	analytics []common.AnalyticsSnapshot
	callback  StrategyCallback
}

// New builds a Harness that owns a freshly constructed engine with the given
// pool capacity.
func New(capacity int) *Harness {
	return &Harness{Engine: matching.New(capacity)}
}

// NewWithEngine builds a Harness that borrows an externally-constructed
// engine, for callers that want to seed the book before replay or share the
// engine across harness instances.
func NewWithEngine(eng *matching.Engine) *Harness {
	return &Harness{Engine: eng}
}

// SetStrategyCallback registers an optional per-trade observer.
func (h *Harness) SetStrategyCallback(cb StrategyCallback) {
	h.callback = cb
}

// Trades returns the accumulated trade log, in feed order.
func (h *Harness) Trades() []common.TradeEvent {
	return h.trades
}

// Analytics returns the accumulated analytics log, in feed order.
func (h *Harness) Analytics() []common.AnalyticsSnapshot {
	return h.analytics
}

// FeedEvents applies each event in order. A snapshot is captured after every
// event regardless of outcome; rejected events are logged and skipped, never
// fatal.
func (h *Harness) FeedEvents(events []common.HistoricalEvent) {
	for _, evt := range events {
		h.applyEvent(evt)
		h.CaptureSnapshot(evt.Timestamp)
	}
}

func (h *Harness) applyEvent(evt common.HistoricalEvent) {
	switch evt.Type {
	case common.Limit:
		h.applyLimit(evt)
	case common.Cancel:
		h.Engine.Book.Cancel(evt.OrderID)
	case common.Modify:
		h.applyModify(evt)
	default:
		log.Warn().
			Uint64("eventId", uint64(evt.EventID)).
			Uint8("type", uint8(evt.Type)).
			Msg("replay: unknown event type, skipping")
	}
}

func (h *Harness) applyLimit(evt common.HistoricalEvent) {
	if evt.Qty <= 0 {
		log.Warn().
			Err(common.ErrInvalidQuantity).
			Uint64("eventId", uint64(evt.EventID)).
			Uint64("orderId", uint64(evt.OrderID)).
			Int64("qty", int64(evt.Qty)).
			Msg("replay: rejecting limit event with invalid quantity")
		return
	}
	if _, exists := h.Engine.Book.Lookup(evt.OrderID); exists {
		log.Error().
			Uint64("eventId", uint64(evt.EventID)).
			Uint64("orderId", uint64(evt.OrderID)).
			Msg("replay: rejecting limit event with duplicate order id")
		return
	}

	o, err := h.Engine.Pool.Allocate()
	if err != nil {
		log.Error().
			Err(err).
			Uint64("eventId", uint64(evt.EventID)).
			Uint64("orderId", uint64(evt.OrderID)).
			Msg("replay: pool exhausted, rejecting limit event")
		return
	}
	o.ID = evt.OrderID
	o.Side = evt.Side
	o.Price = evt.Price
	o.OriginalQty = evt.Qty
	o.RemainingQty = evt.Qty
	o.Timestamp = evt.Timestamp
	o.Prev = nil
	o.Next = nil

	h.dispatch(h.Engine.Match(o))
}

func (h *Harness) applyModify(evt common.HistoricalEvent) {
	outcome, trades := h.Engine.ModifyOrder(evt.OrderID, evt.Price, evt.Qty, evt.Timestamp)
	if outcome == matching.ModifyNotFound {
		log.Debug().
			Uint64("eventId", uint64(evt.EventID)).
			Uint64("orderId", uint64(evt.OrderID)).
			Msg("replay: modify target not found, ignoring")
		return
	}
	h.dispatch(trades)
}

func (h *Harness) dispatch(trades []common.TradeEvent) {
	h.trades = append(h.trades, trades...)
	if h.callback == nil {
		return
	}
	for _, tr := range trades {
		h.callback(tr)
	}
}

// CaptureSnapshot computes mid-price (integer-truncated mean of best bid and
// best ask, or 0 if either side is empty) and total volume across both
// sides, and appends the result to the analytics log.
func (h *Harness) CaptureSnapshot(ts common.Timestamp) {
	var mid common.Price
	bestBid, bidOk := h.Engine.Book.BestBid()
	bestAsk, askOk := h.Engine.Book.BestAsk()
	if bidOk && askOk {
		mid = (bestBid.Price + bestAsk.Price) / 2
	}

	h.analytics = append(h.analytics, common.AnalyticsSnapshot{
		Timestamp:   ts,
		MidPrice:    mid,
		TotalVolume: h.Engine.Book.TotalVolume(),
	})
}
