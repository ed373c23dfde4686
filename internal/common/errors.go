package common

import "errors"

// ErrInvalidQuantity is attached to the warning the replay harness logs when
// a Limit event arrives with qty <= 0. The event is skipped; no other event is
// affected.
var ErrInvalidQuantity = errors.New("common: invalid quantity")

// ErrDuplicateOrderID is returned when a resting insert targets an id that is
// already present in the book's id index.
var ErrDuplicateOrderID = errors.New("common: duplicate order id")
