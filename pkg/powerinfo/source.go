package powerinfo

// Source enumerates battery devices of one platform mechanism.
type Source interface {
	// Name identifies the source in logs, e.g. "sysfs".
	Name() string
	// Devices starts a new enumeration.
	Devices() (DeviceIterator, error)
	// Refresh re-reads the device behind b and updates b in place.
	Refresh(b *Battery) error
}

// DeviceIterator walks the devices of a Source once.
type DeviceIterator interface {
	// Next returns the next battery, or (nil, nil) once there are no more.
	// An error concerns the current device only; the caller may keep
	// calling Next.
	Next() (*Battery, error)
	// Close releases the resources held by the iterator.
	Close() error
}
