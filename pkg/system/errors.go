package system

import "errors"

var (
	// ErrIteratorClosed is returned by an iterator that has already been closed.
	ErrIteratorClosed = errors.New("iterator closed")

	// ErrUnknownDevice is returned when refreshing a snapshot this source did not produce.
	ErrUnknownDevice = errors.New("unknown device")
)
