package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/common"
)

func TestDecodeEvent_RoundTripsLimit(t *testing.T) {
	evt := common.HistoricalEvent{
		EventID:   7,
		Type:      common.Limit,
		OrderID:   42,
		Side:      common.Sell,
		Price:     10150,
		Qty:       25,
		Timestamp: 99999,
	}

	got, err := decodeEvent(encodeEvent(evt))
	require.NoError(t, err)
	assert.Equal(t, evt, got)
}

func TestDecodeEvent_RoundTripsCancel(t *testing.T) {
	evt := common.HistoricalEvent{
		EventID:   8,
		Type:      common.Cancel,
		OrderID:   42,
		Timestamp: 100000,
	}

	got, err := decodeEvent(encodeEvent(evt))
	require.NoError(t, err)
	assert.Equal(t, evt, got)
}

func TestDecodeEvent_TooShort(t *testing.T) {
	_, err := decodeEvent(make([]byte, eventHeaderLen-1))
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestDecodeEvent_UnknownType(t *testing.T) {
	buf := make([]byte, eventHeaderLen)
	buf[0] = 0xFF
	_, err := decodeEvent(buf)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}
