package handle

import "errors"

var (
	// ErrInvalidHandle is returned for a handle that was never issued or was already released.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrWrongKind is returned when a handle is passed to a call expecting another kind.
	ErrWrongKind = errors.New("wrong handle kind")

	// ErrHandleInUse is returned when releasing a manager whose iterators are still alive.
	ErrHandleInUse = errors.New("handle in use")
)
