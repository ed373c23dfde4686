package feed

import (
	"encoding/binary"
	"errors"

	"fenrir/internal/common"
)

var (
	// ErrMessageTooShort signals a record that was truncated before a
	// complete fixed header could be read.
	ErrMessageTooShort = errors.New("feed: message too short for fixed header")
	// ErrUnknownEventType signals a record whose type byte does not match
	// any of common.Limit, common.Cancel, common.Modify.
	ErrUnknownEventType = errors.New("feed: unknown event type byte")
)

// eventHeaderLen is the fixed-width wire encoding of a HistoricalEvent:
//
//	type      1 byte
//	eventID   8 bytes
//	orderID   8 bytes
//	side      1 byte
//	price     8 bytes
//	qty       8 bytes
//	timestamp 8 bytes
const eventHeaderLen = 1 + 8 + 8 + 1 + 8 + 8 + 8

// decodeEvent parses a single fixed-header record into a HistoricalEvent.
// Every field is decoded whatever the type; a Cancel record still carries
// Side, Price and Qty bytes (normally zero) to keep every record the same
// width.
func decodeEvent(buf []byte) (common.HistoricalEvent, error) {
	if len(buf) < eventHeaderLen {
		return common.HistoricalEvent{}, ErrMessageTooShort
	}

	typeOf := common.EventType(buf[0])
	switch typeOf {
	case common.Limit, common.Cancel, common.Modify:
	default:
		return common.HistoricalEvent{}, ErrUnknownEventType
	}

	evt := common.HistoricalEvent{
		Type:      typeOf,
		EventID:   common.EventID(binary.BigEndian.Uint64(buf[1:9])),
		OrderID:   common.OrderID(binary.BigEndian.Uint64(buf[9:17])),
		Side:      common.Side(buf[17]),
		Price:     common.Price(binary.BigEndian.Uint64(buf[18:26])),
		Qty:       common.Qty(binary.BigEndian.Uint64(buf[26:34])),
		Timestamp: common.Timestamp(binary.BigEndian.Uint64(buf[34:42])),
	}
	return evt, nil
}

// encodeEvent is the inverse of decodeEvent, used by tests and by any
// feeder that wants to round-trip a HistoricalEvent onto the wire.
func encodeEvent(evt common.HistoricalEvent) []byte {
	buf := make([]byte, eventHeaderLen)
	buf[0] = byte(evt.Type)
	binary.BigEndian.PutUint64(buf[1:9], uint64(evt.EventID))
	binary.BigEndian.PutUint64(buf[9:17], uint64(evt.OrderID))
	buf[17] = byte(evt.Side)
	binary.BigEndian.PutUint64(buf[18:26], uint64(evt.Price))
	binary.BigEndian.PutUint64(buf[26:34], uint64(evt.Qty))
	binary.BigEndian.PutUint64(buf[34:42], uint64(evt.Timestamp))
	return buf
}
