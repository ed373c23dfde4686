package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
)

func TestFeedEvents_OneSnapshotPerEvent(t *testing.T) {
	h := New(64)
	events := []common.HistoricalEvent{
		{EventID: 1, Type: common.Limit, OrderID: 1, Side: common.Buy, Price: 100, Qty: 10, Timestamp: 1},
		{EventID: 2, Type: common.Limit, OrderID: 2, Side: common.Sell, Price: 101, Qty: 5, Timestamp: 2},
		{EventID: 3, Type: common.Cancel, OrderID: 2, Timestamp: 3},
		{EventID: 4, Type: common.Modify, OrderID: 1, Price: 102, Qty: 8, Timestamp: 4},
	}

	h.FeedEvents(events)
	assert.Len(t, h.Analytics(), len(events))

	for i, snap := range h.Analytics() {
		assert.Equal(t, events[i].Timestamp, snap.Timestamp)
		assert.GreaterOrEqual(t, int64(snap.TotalVolume), int64(0))
	}
}

func TestFeedEvents_MidPriceZeroWhenOneSideEmpty(t *testing.T) {
	h := New(64)
	h.FeedEvents([]common.HistoricalEvent{
		{EventID: 1, Type: common.Limit, OrderID: 1, Side: common.Buy, Price: 100, Qty: 10, Timestamp: 1},
	})

	snaps := h.Analytics()
	require.Len(t, snaps, 1)
	assert.Equal(t, common.Price(0), snaps[0].MidPrice)
}

func TestFeedEvents_InvalidQuantityRejectedNotFatal(t *testing.T) {
	h := New(64)
	h.FeedEvents([]common.HistoricalEvent{
		{EventID: 1, Type: common.Limit, OrderID: 1, Side: common.Buy, Price: 100, Qty: 0, Timestamp: 1},
		{EventID: 2, Type: common.Limit, OrderID: 2, Side: common.Buy, Price: 100, Qty: 5, Timestamp: 2},
	})

	assert.Equal(t, 1, h.Engine.Book.Size())
	assert.Len(t, h.Analytics(), 2)
}

func TestFeedEvents_ModifyLosesPriority(t *testing.T) {
	h := New(64)
	h.FeedEvents([]common.HistoricalEvent{
		{EventID: 1, Type: common.Limit, OrderID: 1, Side: common.Buy, Price: 100, Qty: 10, Timestamp: 1},
		{EventID: 2, Type: common.Limit, OrderID: 2, Side: common.Buy, Price: 100, Qty: 10, Timestamp: 2},
		{EventID: 3, Type: common.Modify, OrderID: 1, Price: 100, Qty: 10, Timestamp: 3},
		{EventID: 4, Type: common.Limit, OrderID: 3, Side: common.Sell, Price: 100, Qty: 10, Timestamp: 4},
	})

	trades := h.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, common.OrderID(2), trades[0].RestingOrderID)
}

func TestSetStrategyCallback_InvokedPerTradeInOrder(t *testing.T) {
	h := New(64)
	h.FeedEvents([]common.HistoricalEvent{
		{EventID: 1, Type: common.Limit, OrderID: 1, Side: common.Sell, Price: 101, Qty: 5, Timestamp: 1},
		{EventID: 2, Type: common.Limit, OrderID: 2, Side: common.Sell, Price: 102, Qty: 5, Timestamp: 2},
	})

	var seen []common.TradeEvent
	h.SetStrategyCallback(func(tr common.TradeEvent) {
		seen = append(seen, tr)
	})

	h.FeedEvents([]common.HistoricalEvent{
		{EventID: 3, Type: common.Limit, OrderID: 3, Side: common.Buy, Price: 102, Qty: 8, Timestamp: 3},
	})

	require.Len(t, seen, 2)
	assert.Equal(t, common.OrderID(1), seen[0].RestingOrderID)
	assert.Equal(t, common.OrderID(2), seen[1].RestingOrderID)
}

func TestFeedEvents_DuplicateOrderIDRejected(t *testing.T) {
	h := New(64)
	h.FeedEvents([]common.HistoricalEvent{
		{EventID: 1, Type: common.Limit, OrderID: 1, Side: common.Buy, Price: 100, Qty: 10, Timestamp: 1},
		{EventID: 2, Type: common.Limit, OrderID: 1, Side: common.Buy, Price: 99, Qty: 5, Timestamp: 2},
	})

	assert.Equal(t, 1, h.Engine.Book.Size())
	bid, ok := h.Engine.Book.BestBid()
	require.True(t, ok)
	assert.Equal(t, common.Price(100), bid.Price)
}
