package feed

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
	"fenrir/internal/replay"
)

func TestListener_DecodesEventsOverTCP(t *testing.T) {
	h := replay.New(64)
	l := New("127.0.0.1", 0, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	addr := l.Addr()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	events := []common.HistoricalEvent{
		{EventID: 1, Type: common.Limit, OrderID: 1, Side: common.Buy, Price: 100, Qty: 10, Timestamp: 1},
		{EventID: 2, Type: common.Limit, OrderID: 2, Side: common.Sell, Price: 100, Qty: 10, Timestamp: 2},
	}
	for _, evt := range events {
		_, err := conn.Write(encodeEvent(evt))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return len(h.Trades()) == 1
	}, time.Second, 5*time.Millisecond)

	trades := h.Trades()
	assert.Equal(t, common.OrderID(1), trades[0].RestingOrderID)
	assert.Equal(t, common.OrderID(2), trades[0].IncomingOrderID)
}
