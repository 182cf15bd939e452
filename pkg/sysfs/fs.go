package sysfs

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// readString reads a sysfs attribute. A missing attribute is not an
// error: ok is false. Some drivers create attributes that fail with
// ENODEV on read, these are treated as missing too.
func readString(path string) (value string, ok bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENODEV) {
			return "", false, nil
		}
		return "", false, pkgerrors.Wrapf(err, "failed to read %s", path)
	}

	s := string(b)
	if strings.HasPrefix(s, "\x00") {
		return "", false, pkgerrors.Wrapf(ErrInvalidData, "failed to read %s", path)
	}

	return strings.TrimSuffix(s, "\n"), true, nil
}

// readFloat reads a numeric attribute. Unparsable content counts as missing.
func readFloat(path string) (float64, bool, error) {
	s, ok, err := readString(path)
	if err != nil || !ok {
		return 0, false, err
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, nil
	}

	return v, true, nil
}

func readUint32(path string) (uint32, bool, error) {
	s, ok, err := readString(path)
	if err != nil || !ok {
		return 0, false, err
	}

	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, false, nil
	}

	return uint32(v), true, nil
}

// readEnergy reads an energy_* attribute (µWh).
func readEnergy(path string) (physic.Energy, bool, error) {
	v, ok, err := readFloat(path)
	if err != nil || !ok {
		return 0, false, err
	}

	return powerinfo.EnergyFromMicroWattHours(v), true, nil
}

// readCharge reads a charge_* attribute (µAh).
func readCharge(path string) (float64, bool, error) {
	v, ok, err := readFloat(path)
	if err != nil || !ok || v <= 1 {
		return 0, false, err
	}

	return v, true, nil
}

// readVoltage reads a voltage_* attribute (µV).
func readVoltage(path string) (physic.ElectricPotential, bool, error) {
	v, ok, err := readFloat(path)
	if err != nil || !ok || v <= 1 {
		return 0, false, err
	}

	return physic.ElectricPotential(math.Round(v * float64(physic.MicroVolt))), true, nil
}

// readPower reads a power_* attribute (µW).
func readPower(path string) (physic.Power, bool, error) {
	v, ok, err := readFloat(path)
	if err != nil || !ok || v <= 10_000 {
		return 0, false, err
	}

	return physic.Power(math.Round(v * float64(physic.MicroWatt))), true, nil
}

// first returns the first attribute in names that reads successfully.
// Errors are ignored: later fallbacks deal with the missing value.
func first[T any](dir *device, names []string, read func(string) (T, bool, error)) (T, bool) {
	for _, name := range names {
		v, ok, err := read(dir.path(name))
		if err == nil && ok {
			return v, true
		}
	}

	var zero T
	return zero, false
}
