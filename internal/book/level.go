package book

import (
	"fenrir/internal/common"
	"fenrir/internal/pool"
)

// PriceLevel aggregates all resting orders at one price on one side. The
// queue is a FIFO: Head is the oldest order, Tail is the newest.
//
// Invariant: Head == nil iff Tail == nil iff TotalVolume == 0.
type PriceLevel struct {
	Price       common.Price
	TotalVolume common.Qty
	Head        *pool.Order
	Tail        *pool.Order
}

// appendOrder links o onto the tail of the level's FIFO queue and adds its
// remaining quantity to TotalVolume.
func (lvl *PriceLevel) appendOrder(o *pool.Order) {
	o.Prev = lvl.Tail
	o.Next = nil
	if lvl.Tail != nil {
		lvl.Tail.Next = o
	} else {
		lvl.Head = o
	}
	lvl.Tail = o
	lvl.TotalVolume += o.RemainingQty
}

// unlink splices o out of the level's FIFO queue and subtracts its remaining
// quantity from TotalVolume. It does not clear o.Prev/o.Next itself; callers
// either clear them explicitly (removeFromLevel) or hand o to Pool.Deallocate,
// which clears them as part of returning the slot to the free list.
func (lvl *PriceLevel) unlink(o *pool.Order) {
	if o.Prev != nil {
		o.Prev.Next = o.Next
	} else {
		lvl.Head = o.Next
	}
	if o.Next != nil {
		o.Next.Prev = o.Prev
	} else {
		lvl.Tail = o.Prev
	}
	lvl.TotalVolume -= o.RemainingQty
}

// empty reports whether the level has no resting orders.
func (lvl *PriceLevel) empty() bool {
	return lvl.Head == nil
}
