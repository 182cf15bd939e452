package sysfs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// DefaultRoot is where the kernel exposes power supplies.
const DefaultRoot = "/sys/class/power_supply"

var _ powerinfo.Source = &Source{}

// Source enumerates batteries through the Linux power supply class.
type Source struct {
	root string
}

// New returns a Source reading from root. An empty root means DefaultRoot.
func New(root string) *Source {
	if root == "" {
		root = DefaultRoot
	}
	return &Source{root: root}
}

func (s *Source) Name() string {
	return "sysfs"
}

// Root returns the power supply class directory.
func (s *Source) Root() string {
	return s.root
}

// Devices lists the power supplies under the root. Device attributes are
// only read when the iterator reaches them.
func (s *Source) Devices() (powerinfo.DeviceIterator, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list power supplies in %s", s.root)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(s.root, e.Name()))
	}
	sort.Strings(paths)

	logrus.WithFields(logrus.Fields{
		"root":    s.root,
		"entries": len(paths),
	}).Debug("listed power supplies")

	return &iterator{paths: paths}, nil
}

// Refresh re-reads the device directory b was read from.
func (s *Source) Refresh(b *powerinfo.Battery) error {
	if b == nil {
		return pkgerrors.New("battery is nil")
	}

	nb, err := ReadDevice(b.ID)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to refresh %s", b.ID)
	}
	*b = *nb

	return nil
}

// IsSystemBattery reports whether dir is a battery powering the whole
// system. Batteries of peripherals (scope "Device") are not.
func IsSystemBattery(dir string) (bool, error) {
	typ, ok, err := readString(filepath.Join(dir, "type"))
	if err != nil || !ok {
		return false, err
	}
	if !strings.EqualFold(strings.TrimSpace(typ), "Battery") {
		return false, nil
	}

	scope, ok, err := readString(filepath.Join(dir, "scope"))
	if err != nil {
		return false, err
	}
	// A supply without scope powers the system.
	if !ok {
		return true, nil
	}

	return strings.EqualFold(strings.TrimSpace(scope), "System"), nil
}

type iterator struct {
	paths  []string
	closed bool
}

func (it *iterator) Next() (*powerinfo.Battery, error) {
	if it.closed {
		return nil, ErrIteratorClosed
	}

	for len(it.paths) > 0 {
		path := it.paths[0]
		it.paths = it.paths[1:]

		ok, err := IsSystemBattery(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			logrus.WithField("path", path).Trace("not a system battery, skipping")
			continue
		}

		return ReadDevice(path)
	}

	return nil, nil
}

func (it *iterator) Close() error {
	if it.closed {
		return ErrIteratorClosed
	}
	it.closed = true
	it.paths = nil
	return nil
}
