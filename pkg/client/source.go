package client

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

var (
	// ErrIteratorClosed is returned by an iterator that has already been closed.
	ErrIteratorClosed = errors.New("iterator closed")
	// ErrDeviceGone is returned when refreshing a battery the daemon no longer reports.
	ErrDeviceGone = errors.New("battery no longer reported by daemon")
)

var _ powerinfo.Source = &Source{}

// Source reads batteries from a running daemon instead of the local
// machine.
type Source struct {
	c *Client
}

// NewSource returns a Source backed by c.
func NewSource(c *Client) *Source {
	return &Source{c: c}
}

func (s *Source) Name() string {
	return "daemon"
}

func (s *Source) Devices() (powerinfo.DeviceIterator, error) {
	bats, err := s.c.GetBatteries()
	if err != nil {
		return nil, err
	}
	return &iterator{bats: bats}, nil
}

// Refresh fetches the battery with the same ID from the daemon.
func (s *Source) Refresh(b *powerinfo.Battery) error {
	if b == nil {
		return pkgerrors.New("battery is nil")
	}

	bats, err := s.c.GetBatteries()
	if err != nil {
		return err
	}
	for _, nb := range bats {
		if nb.ID == b.ID {
			*b = *nb
			return nil
		}
	}

	return pkgerrors.Wrapf(ErrDeviceGone, "%s", b.ID)
}

type iterator struct {
	bats   []*powerinfo.Battery
	closed bool
}

func (it *iterator) Next() (*powerinfo.Battery, error) {
	if it.closed {
		return nil, ErrIteratorClosed
	}
	if len(it.bats) == 0 {
		return nil, nil
	}
	b := it.bats[0]
	it.bats = it.bats[1:]
	return b, nil
}

func (it *iterator) Close() error {
	if it.closed {
		return ErrIteratorClosed
	}
	it.closed = true
	it.bats = nil
	return nil
}
