package battery

import "errors"

var (
	// ErrManagerClosed is returned by every operation on a closed Manager.
	ErrManagerClosed = errors.New("manager closed")

	// ErrIteratorClosed is returned by an Iterator after Close.
	ErrIteratorClosed = errors.New("iterator closed")

	// ErrUnknownSource is returned for a source name that is not supported.
	ErrUnknownSource = errors.New("unknown battery source")
)
