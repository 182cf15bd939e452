// Package battery is the entry point of the library. A Manager enumerates
// the batteries of the machine through a powerinfo.Source and hands out
// snapshots.
package battery

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// Manager owns a battery source. It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	source    powerinfo.Source
	logger    *logrus.Entry
	iterators map[*Iterator]struct{}
	closed    bool
}

// NewManager creates a Manager. Without options it uses the platform
// default source.
func NewManager(opts ...Option) (*Manager, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	src := o.source
	if src == nil {
		src = defaultSource(o.sysfsRoot)
	}

	logger := o.logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("source", src.Name())
	logger.Debug("battery manager created")

	return &Manager{
		source:    src,
		logger:    logger,
		iterators: make(map[*Iterator]struct{}),
	}, nil
}

// Source returns the source the Manager reads from.
func (m *Manager) Source() powerinfo.Source {
	return m.source
}

// Batteries starts a new enumeration.
func (m *Manager) Batteries() (*Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	devices, err := m.source.Devices()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to enumerate batteries from %s", m.source.Name())
	}

	it := &Iterator{manager: m, devices: devices}
	m.iterators[it] = struct{}{}

	return it, nil
}

// All collects every battery. It fails on the first device that cannot
// be read.
func (m *Manager) All() ([]*powerinfo.Battery, error) {
	it, err := m.Batteries()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ret []*powerinfo.Battery
	for {
		b, err := it.Next()
		if err != nil {
			return nil, err
		}
		if b == nil {
			return ret, nil
		}
		ret = append(ret, b)
	}
}

// Refresh updates b in place with a new reading of the same device.
func (m *Manager) Refresh(b *powerinfo.Battery) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return ErrManagerClosed
	}
	if b == nil {
		return pkgerrors.New("battery is nil")
	}

	if err := m.source.Refresh(b); err != nil {
		return err
	}
	m.logger.WithField("id", b.ID).Trace("battery refreshed")

	return nil
}

// Close closes the Manager and every Iterator it returned that is still open.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.closed = true
	its := make([]*Iterator, 0, len(m.iterators))
	for it := range m.iterators {
		its = append(its, it)
	}
	m.mu.Unlock()

	for _, it := range its {
		if err := it.Close(); err != nil && !pkgerrors.Is(err, ErrIteratorClosed) {
			m.logger.Warnf("failed to close iterator: %v", err)
		}
	}
	m.logger.Debug("battery manager closed")

	return nil
}

func (m *Manager) forget(it *Iterator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.iterators, it)
}
