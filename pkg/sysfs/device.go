package sysfs

import (
	"math"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// device reads the attributes of one power supply directory. Values that
// other values are derived from are memoized, so every attribute is read
// at most once per snapshot.
type device struct {
	dir string

	designVoltage     physic.ElectricPotential
	designVoltageOK   bool
	designVoltageRead bool

	energyFullDesign *physic.Energy
	energyFull       *physic.Energy
	energy           *physic.Energy
}

func (d *device) path(name string) string {
	return filepath.Join(d.dir, name)
}

// ReadDevice takes a snapshot of the battery in dir.
func ReadDevice(dir string) (*powerinfo.Battery, error) {
	d := &device{dir: dir}
	return d.collect()
}

func (d *device) collect() (*powerinfo.Battery, error) {
	soc, err := d.getStateOfCharge()
	if err != nil {
		return nil, err
	}
	energy, err := d.getEnergy()
	if err != nil {
		return nil, err
	}
	full, err := d.getEnergyFull()
	if err != nil {
		return nil, err
	}
	design, err := d.getEnergyFullDesign()
	if err != nil {
		return nil, err
	}
	rate, err := d.getEnergyRate()
	if err != nil {
		return nil, err
	}
	voltage, err := d.getVoltage()
	if err != nil {
		return nil, err
	}
	state, err := d.getState()
	if err != nil {
		return nil, err
	}
	temperature, err := d.getTemperature()
	if err != nil {
		return nil, err
	}
	cycles, err := d.getCycleCount()
	if err != nil {
		return nil, err
	}

	return &powerinfo.Battery{
		ID:               d.dir,
		Vendor:           d.getOptionalString("manufacturer"),
		Model:            d.getOptionalString("model_name"),
		SerialNumber:     d.getOptionalString("serial_number"),
		State:            state,
		Technology:       d.getTechnology(),
		StateOfCharge:    soc,
		Energy:           energy,
		EnergyFull:       full,
		EnergyFullDesign: design,
		EnergyRate:       rate,
		Voltage:          voltage,
		Temperature:      temperature,
		CycleCount:       cycles,
	}, nil
}

func (d *device) getDesignVoltage() (physic.ElectricPotential, error) {
	if !d.designVoltageRead {
		d.designVoltage, d.designVoltageOK = first(d, []string{
			"voltage_max_design",
			"voltage_min_design",
			"voltage_present",
			"voltage_now",
		}, readVoltage)
		d.designVoltageRead = true
	}

	if !d.designVoltageOK {
		return 0, pkgerrors.Wrapf(ErrNoDesignVoltage, "device %s", d.dir)
	}
	return d.designVoltage, nil
}

func (d *device) getEnergyFullDesign() (physic.Energy, error) {
	if d.energyFullDesign != nil {
		return *d.energyFullDesign, nil
	}

	e, ok, err := readEnergy(d.path("energy_full_design"))
	if err != nil {
		return 0, err
	}
	if !ok {
		charge, ok, err := readCharge(d.path("charge_full_design"))
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, pkgerrors.Wrapf(ErrNoDesignEnergy, "device %s", d.dir)
		}
		v, err := d.getDesignVoltage()
		if err != nil {
			return 0, err
		}
		e = powerinfo.EnergyFromCharge(charge, v)
	}

	d.energyFullDesign = &e
	return e, nil
}

func (d *device) getEnergyFull() (physic.Energy, error) {
	if d.energyFull != nil {
		return *d.energyFull, nil
	}

	e, ok, err := readEnergy(d.path("energy_full"))
	if err != nil {
		return 0, err
	}
	if !ok {
		charge, chargeOK, err := readCharge(d.path("charge_full"))
		if err != nil {
			return 0, err
		}
		if chargeOK {
			v, err := d.getDesignVoltage()
			if err != nil {
				return 0, err
			}
			e = powerinfo.EnergyFromCharge(charge, v)
		} else {
			e, err = d.getEnergyFullDesign()
			if err != nil {
				return 0, err
			}
		}
	}

	d.energyFull = &e
	return e, nil
}

func (d *device) getEnergy() (physic.Energy, error) {
	if d.energy != nil {
		return *d.energy, nil
	}

	e, ok := first(d, []string{"energy_now", "energy_avg"}, readEnergy)
	if !ok {
		if charge, chargeOK := first(d, []string{"charge_now", "charge_avg"}, readCharge); chargeOK {
			v, err := d.getDesignVoltage()
			if err != nil {
				return 0, err
			}
			e, ok = powerinfo.EnergyFromCharge(charge, v), true
		}
	}
	if !ok {
		capacity, capacityOK, _ := readFloat(d.path("capacity"))
		if !capacityOK {
			return 0, pkgerrors.Wrapf(ErrNoEnergy, "device %s", d.dir)
		}
		full, err := d.getEnergyFull()
		if err != nil {
			return 0, err
		}
		e = physic.Energy(math.Round(float64(full) * powerinfo.Bound(capacity/100)))
	}

	d.energy = &e
	return e, nil
}

// hasChargeFull reports whether the device reports charge in µAh, in
// which case current_now is in µA as well.
func (d *device) hasChargeFull() bool {
	_, ok := first(d, []string{"charge_full", "charge_full_design"}, readCharge)
	return ok
}

func (d *device) getEnergyRate() (physic.Power, error) {
	p, ok, err := readPower(d.path("power_now"))
	if err != nil {
		return 0, err
	}
	if !ok {
		current, currentOK, err := readFloat(d.path("current_now"))
		if err != nil {
			return 0, err
		}
		if currentOK {
			// Some drivers report a negative current while discharging.
			current = math.Abs(current)
			if d.hasChargeFull() {
				v, err := d.getDesignVoltage()
				if err != nil {
					return 0, err
				}
				p = powerinfo.PowerFromCurrent(current, v)
			} else {
				// Legacy energy-only drivers report power in current_now (µW).
				p = physic.Power(math.Round(current * float64(physic.MicroWatt)))
			}
			ok = true
		}
	}
	if !ok {
		return 0, nil
	}

	if p < 0 {
		p = -p
	}
	// Above 100 W is bogus, and so is ACPI's Ones (0xffff) value that
	// shows up while the firmware cannot calculate the rate. Some
	// batteries also give out tiny rates when nearly empty.
	if p > 100*physic.Watt || p < 10*physic.MicroWatt {
		return 0, nil
	}

	return p, nil
}

func (d *device) getStateOfCharge() (float64, error) {
	capacity, ok, err := readFloat(d.path("capacity"))
	if err != nil {
		return 0, err
	}
	if ok {
		return powerinfo.Bound(capacity / 100), nil
	}

	full, err := d.getEnergyFull()
	if err != nil {
		return 0, err
	}
	if full <= 0 {
		return 0, nil
	}
	energy, err := d.getEnergy()
	if err != nil {
		return 0, err
	}

	return powerinfo.Bound(float64(energy) / float64(full)), nil
}

func (d *device) getVoltage() (physic.ElectricPotential, error) {
	v, ok := first(d, []string{"voltage_now", "voltage_avg"}, readVoltage)
	if !ok {
		return 0, pkgerrors.Wrapf(ErrNoVoltage, "device %s", d.dir)
	}
	return v, nil
}

func (d *device) getState() (powerinfo.State, error) {
	s, ok, err := readString(d.path("status"))
	if err != nil {
		return powerinfo.Unknown, err
	}
	if !ok {
		return powerinfo.Unknown, nil
	}
	return powerinfo.ParseState(s), nil
}

// getTemperature reads temp, reported in tenths of °C.
func (d *device) getTemperature() (*physic.Temperature, error) {
	v, ok, err := readFloat(d.path("temp"))
	if err != nil || !ok {
		return nil, err
	}

	t := physic.ZeroCelsius + physic.Temperature(math.Round(v/10*float64(physic.Kelvin)))
	return &t, nil
}

// getCycleCount reads cycle_count. Drivers that do not count cycles report 0.
func (d *device) getCycleCount() (*uint32, error) {
	v, ok, err := readUint32(d.path("cycle_count"))
	if err != nil || !ok || v == 0 {
		return nil, err
	}
	return &v, nil
}

func (d *device) getTechnology() powerinfo.Technology {
	s, ok, err := readString(d.path("technology"))
	if err != nil {
		logrus.WithField("device", d.dir).Debugf("failed to read technology: %v", err)
	}
	if !ok {
		return powerinfo.TechnologyUnknown
	}
	return powerinfo.ParseTechnology(s)
}

func (d *device) getOptionalString(name string) *string {
	s, ok, err := readString(d.path(name))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"device": d.dir,
			"file":   name,
		}).Debugf("failed to read attribute: %v", err)
		return nil
	}

	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return nil
	}
	return &s
}
