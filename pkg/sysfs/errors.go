package sysfs

import "errors"

var (
	// ErrInvalidData is returned when an attribute holds garbage, e.g. it starts with NUL.
	ErrInvalidData = errors.New("invalid data")

	// ErrNoDesignEnergy is returned when neither energy_full_design nor charge_full_design can be read.
	ErrNoDesignEnergy = errors.New("unable to determine design energy")

	// ErrNoDesignVoltage is returned when a charge based value needs a voltage and none is reported.
	ErrNoDesignVoltage = errors.New("unable to determine design voltage")

	// ErrNoEnergy is returned when the current energy cannot be derived from any attribute.
	ErrNoEnergy = errors.New("unable to calculate device energy value")

	// ErrNoVoltage is returned when neither voltage_now nor voltage_avg can be read.
	ErrNoVoltage = errors.New("unable to calculate device voltage value")

	// ErrIteratorClosed is returned by an iterator that has already been closed.
	ErrIteratorClosed = errors.New("iterator closed")
)
