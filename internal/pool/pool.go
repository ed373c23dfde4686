// Package pool implements the fixed-capacity order arena. Fills and cancels
// dominate the replay workload, so acquire/release must be O(1) with no heap
// traffic; slot addresses are stable for the pool's lifetime, which is what
// lets the order book hold raw prev/next pointers between orders.
package pool

import (
	"errors"

	"fenrir/internal/common"
)

// ErrPoolExhausted is returned by Allocate when every slot is in use.
var ErrPoolExhausted = errors.New("pool: exhausted")

// Order is a resting or in-flight limit order. It is doubly-linked within its
// price level; prev/next are nil at the head/tail of the level's queue.
type Order struct {
	ID           common.OrderID
	Side         common.Side
	Price        common.Price
	OriginalQty  common.Qty
	RemainingQty common.Qty
	Timestamp    common.Timestamp

	// Prev/Next link the order within its price level's FIFO queue. They are
	// nil at the head/tail of the queue. The order book (internal/book) links
	// and splices them; the pool only resets them to nil in Deallocate.
	Prev *Order
	Next *Order
}

// Pool is a fixed-capacity arena of Order slots with a LIFO free list.
// Double-free is undefined; the caller (the book and matching engine) must
// call Deallocate exactly once per allocation.
type Pool struct {
	storage []Order
	free    []*Order

	allocCount   uint64
	deallocCount uint64
}

// New allocates capacity slots and builds the free list.
func New(capacity int) *Pool {
	p := &Pool{
		storage: make([]Order, capacity),
		free:    make([]*Order, 0, capacity),
	}
	for i := range p.storage {
		p.free = append(p.free, &p.storage[i])
	}
	return p
}

// Allocate returns an uninitialized order slot. The caller must assign all
// fields before any use.
func (p *Pool) Allocate() (*Order, error) {
	n := len(p.free)
	if n == 0 {
		return nil, ErrPoolExhausted
	}
	o := p.free[n-1]
	p.free = p.free[:n-1]
	p.allocCount++
	return o, nil
}

// Deallocate clears the slot's Prev/Next links and returns it to the free
// list.
func (p *Pool) Deallocate(o *Order) {
	o.Prev = nil
	o.Next = nil
	p.free = append(p.free, o)
	p.deallocCount++
}

// ActiveCount returns allocations minus deallocations.
func (p *Pool) ActiveCount() int {
	return int(p.allocCount - p.deallocCount)
}

// Capacity returns the total number of slots the pool was built with.
func (p *Pool) Capacity() int {
	return len(p.storage)
}
