// Package matching implements price/time-priority crossing of an incoming
// aggressive limit order against the opposite side of the book, with partial
// fills, level retirement, and residual posting.
package matching

import (
	"fenrir/internal/book"
	"fenrir/internal/common"
	"fenrir/internal/pool"
)

// Engine owns the pool and book for one instrument and exposes the sole
// matching entry point plus the Modify operation, which needs both the book
// and the matcher in scope (see SPEC_FULL.md's Modify placement decision).
type Engine struct {
	Book *book.OrderBook
	Pool *pool.Pool
}

// New builds an Engine with a freshly allocated pool of the given capacity.
func New(capacity int) *Engine {
	p := pool.New(capacity)
	return &Engine{
		Book: book.New(p),
		Pool: p,
	}
}

// ModifyOutcome reports what Engine.ModifyOrder did.
type ModifyOutcome int

const (
	// ModifyApplied means id was found, detached, reassigned, and
	// re-submitted through Match.
	ModifyApplied ModifyOutcome = iota
	// ModifyNotFound means id was not resting; no-op.
	ModifyNotFound
)

// Match walks the opposite side of the book best-first, crossing against
// incoming while incoming.RemainingQty > 0, and posts any residual as a
// resting order. incoming must arrive with RemainingQty == OriginalQty and
// must already be allocated from e.Pool (e.g. via e.Pool.Allocate or
// e.Book.Detach).
func (e *Engine) Match(incoming *pool.Order) []common.TradeEvent {
	var trades []common.TradeEvent

	opposite := e.Book.LevelsFor(incoming.Side.Opposite())

	for incoming.RemainingQty > 0 {
		lvl, ok := opposite.MinMut()
		if !ok {
			break
		}

		cross := false
		if incoming.Side == common.Buy {
			cross = incoming.Price >= lvl.Price
		} else {
			cross = incoming.Price <= lvl.Price
		}
		if !cross {
			break
		}

		resting := lvl.Head
		for resting != nil && incoming.RemainingQty > 0 {
			executed := min64(incoming.RemainingQty, resting.RemainingQty)

			incoming.RemainingQty -= executed
			resting.RemainingQty -= executed
			lvl.TotalVolume -= executed

			trades = append(trades, common.TradeEvent{
				RestingOrderID:  resting.ID,
				IncomingOrderID: incoming.ID,
				Price:           resting.Price,
				Quantity:        executed,
				Timestamp:       incoming.Timestamp,
			})

			next := resting.Next
			if resting.RemainingQty == 0 {
				e.Book.Unlink(lvl, resting)
				e.Book.Unregister(resting.ID)
				e.Pool.Deallocate(resting)
			}
			resting = next
		}

		if lvl.Head == nil {
			opposite.Delete(lvl)
		}
	}

	if incoming.RemainingQty > 0 {
		e.Book.PostResting(incoming)
	} else {
		e.Pool.Deallocate(incoming)
	}

	return trades
}

// ModifyOrder re-submits id as a new aggressive order at new price/qty,
// losing its place in time priority even if the price is unchanged — this is
// the replay model's intentional, observable semantics (spec.md §4.2, §9). A
// "price-preserving" modify is explicitly a non-goal.
func (e *Engine) ModifyOrder(id common.OrderID, newPrice common.Price, newQty common.Qty, ts common.Timestamp) (ModifyOutcome, []common.TradeEvent) {
	o, ok := e.Book.Detach(id)
	if !ok {
		return ModifyNotFound, nil
	}

	o.Price = newPrice
	o.OriginalQty = newQty
	o.RemainingQty = newQty
	o.Timestamp = ts

	return ModifyApplied, e.Match(o)
}

func min64(a, b common.Qty) common.Qty {
	if a < b {
		return a
	}
	return b
}
