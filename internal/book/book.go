// Package book implements the two-sided, price-indexed order book: bid and
// ask price levels each holding a FIFO queue of resting orders, plus an
// id index covering every currently-resting order.
package book

import (
	"github.com/tidwall/btree"

	"fenrir/internal/common"
	"fenrir/internal/pool"
)

// Levels is the ordered map of price -> *PriceLevel backing one side of the
// book. A balanced tree gives O(log L) random insert/erase and O(log L)
// best-first access; a heap is insufficient because cancels must locate an
// arbitrary level.
type Levels = btree.BTreeG[*PriceLevel]

// OrderBook is the two-sided book for a single instrument.
type OrderBook struct {
	// Bids is sorted best-first (highest price first). Asks is sorted
	// best-first (lowest price first). Exported so analytics and tests can
	// walk levels directly, matching the teacher's own exported Bids/Asks.
	Bids *Levels
	Asks *Levels

	idIndex map[common.OrderID]*pool.Order
	pool    *pool.Pool
}

// New builds an empty order book backed by p.
func New(p *pool.Pool) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price > b.Price // descending: highest price first
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price < b.Price // ascending: lowest price first
	})
	return &OrderBook{
		Bids:    bids,
		Asks:    asks,
		idIndex: make(map[common.OrderID]*pool.Order),
		pool:    p,
	}
}

func (b *OrderBook) levelsFor(side common.Side) *Levels {
	if side == common.Buy {
		return b.Bids
	}
	return b.Asks
}

// InsertResting allocates a new resting order and appends it to the tail of
// its price level (creating the level if needed), without matching. qty must
// be > 0 and id must not already be present in the id index.
func (b *OrderBook) InsertResting(id common.OrderID, side common.Side, price common.Price, qty common.Qty, ts common.Timestamp) (*pool.Order, error) {
	if _, exists := b.idIndex[id]; exists {
		return nil, common.ErrDuplicateOrderID
	}

	o, err := b.pool.Allocate()
	if err != nil {
		return nil, err
	}
	o.ID = id
	o.Side = side
	o.Price = price
	o.OriginalQty = qty
	o.RemainingQty = qty
	o.Timestamp = ts
	o.Prev = nil
	o.Next = nil

	b.insertIntoLevel(o)
	b.idIndex[id] = o
	return o, nil
}

// insertIntoLevel appends o to the tail of its side/price level, creating
// the level if this is the first order at that price.
func (b *OrderBook) insertIntoLevel(o *pool.Order) {
	levels := b.levelsFor(o.Side)
	lvl, ok := levels.GetMut(&PriceLevel{Price: o.Price})
	if !ok {
		lvl = &PriceLevel{Price: o.Price}
		levels.Set(lvl)
	}
	lvl.appendOrder(o)
}

// removeFromLevel splices o out of its price level's queue, and erases the
// level from the sorted map if it is now empty. It does not touch the id
// index or release o to the pool — callers (Cancel, the matching engine) do
// that once they decide the order's fate.
func (b *OrderBook) removeFromLevel(o *pool.Order) {
	levels := b.levelsFor(o.Side)
	lvl, ok := levels.GetMut(&PriceLevel{Price: o.Price})
	if !ok {
		return
	}
	lvl.unlink(o)
	o.Prev = nil
	o.Next = nil
	if lvl.empty() {
		levels.Delete(lvl)
	}
}

// Cancel unlinks id's order from its level, releases its slot, and removes
// it from the id index. Returns false if id was not found (including if it
// had already been fully filled or cancelled) — a non-fatal outcome.
func (b *OrderBook) Cancel(id common.OrderID) bool {
	o, ok := b.idIndex[id]
	if !ok {
		return false
	}
	b.removeFromLevel(o)
	delete(b.idIndex, id)
	b.pool.Deallocate(o)
	return true
}

// Lookup returns the resting order for id, if present.
func (b *OrderBook) Lookup(id common.OrderID) (*pool.Order, bool) {
	o, ok := b.idIndex[id]
	return o, ok
}

// Detach removes id's order from its level and the id index, without
// releasing its pool slot, and returns it. Used by the matching engine's
// Modify path, which reassigns price/qty on the detached order before
// re-submitting it as an aggressive order. Returns false if id is not
// resting.
func (b *OrderBook) Detach(id common.OrderID) (*pool.Order, bool) {
	o, ok := b.idIndex[id]
	if !ok {
		return nil, false
	}
	b.removeFromLevel(o)
	delete(b.idIndex, id)
	return o, true
}

// PostResting links an already-allocated order (the unfilled residual of an
// aggressor) into its own side's book and registers it in the id index.
func (b *OrderBook) PostResting(o *pool.Order) {
	b.insertIntoLevel(o)
	b.idIndex[o.ID] = o
}

// Unlink splices o out of lvl's FIFO queue in place, without looking lvl up
// again. Used by the matching engine's crossing walk, which already holds
// the level pointer from the best-bid/best-ask lookup that started the walk.
// The caller is responsible for erasing the id index entry, releasing o's
// pool slot, and deleting lvl from the sorted map if it is left empty.
func (b *OrderBook) Unlink(lvl *PriceLevel, o *pool.Order) {
	lvl.unlink(o)
}

// Unregister removes id from the id index without releasing the order's
// slot or unlinking it from its level. Used by the matching engine when a
// resting order is fully filled during a crossing walk: the caller unlinks
// and deallocates directly since it already holds the level in hand.
func (b *OrderBook) Unregister(id common.OrderID) {
	delete(b.idIndex, id)
}

// BestBid returns the highest-priced bid level, if any.
func (b *OrderBook) BestBid() (*PriceLevel, bool) {
	return b.Bids.MinMut()
}

// BestAsk returns the lowest-priced ask level, if any.
func (b *OrderBook) BestAsk() (*PriceLevel, bool) {
	return b.Asks.MinMut()
}

// LevelsFor returns the sorted map backing side, best-first. Used by the
// matching engine to walk the opposite side during a crossing walk.
func (b *OrderBook) LevelsFor(side common.Side) *Levels {
	return b.levelsFor(side)
}

// LevelAt returns the level for a given side/price, if one exists.
func (b *OrderBook) LevelAt(side common.Side, price common.Price) (*PriceLevel, bool) {
	return b.levelsFor(side).GetMut(&PriceLevel{Price: price})
}

// Size returns the number of currently-resting orders (equivalently, the
// pool's active count restricted to this book).
func (b *OrderBook) Size() int {
	return len(b.idIndex)
}

// TotalVolume sums TotalVolume across every level on both sides.
func (b *OrderBook) TotalVolume() common.Qty {
	var total common.Qty
	for _, lvl := range b.Bids.Items() {
		total += lvl.TotalVolume
	}
	for _, lvl := range b.Asks.Items() {
		total += lvl.TotalVolume
	}
	return total
}
