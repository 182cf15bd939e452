package battery

import (
	"sync"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// Iterator walks the batteries of one enumeration. It is finite and
// forward-only.
type Iterator struct {
	mu      sync.Mutex
	manager *Manager
	devices powerinfo.DeviceIterator
	done    bool
	closed  bool
}

// Next returns the next battery. At the end of the sequence it returns
// (nil, nil), and keeps doing so. An error only concerns the current
// device: the following call moves on to the next one.
func (it *Iterator) Next() (*powerinfo.Battery, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.closed {
		return nil, ErrIteratorClosed
	}
	if it.done {
		return nil, nil
	}

	b, err := it.devices.Next()
	if err != nil {
		it.manager.logger.Debugf("failed to read battery: %v", err)
		return nil, err
	}
	if b == nil {
		it.done = true
		return nil, nil
	}

	return b, nil
}

// Close releases the enumeration. Closing twice returns ErrIteratorClosed.
func (it *Iterator) Close() error {
	it.mu.Lock()
	if it.closed {
		it.mu.Unlock()
		return ErrIteratorClosed
	}
	it.closed = true
	err := it.devices.Close()
	it.mu.Unlock()

	it.manager.forget(it)

	return err
}
