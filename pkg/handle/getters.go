package handle

import (
	"math"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// Sentinels for values the battery does not report.
const (
	UnknownTemperature float32 = math.MaxFloat32
	UnknownCycleCount  uint32  = math.MaxUint32
	UnknownTime        uint64  = math.MaxUint64
)

// battery returns the snapshot behind b. An invalid handle is a
// programming error, so it panics.
func (r *Registry) battery(b Handle) *powerinfo.Battery {
	e, err := r.lookup(b, KindBattery)
	if err != nil {
		panic(err)
	}
	return e.value.(*powerinfo.Battery)
}

func milli(v float64) uint32 {
	v = math.Round(v * 1000)
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}

// BatteryEnergy returns the current energy in mWh.
func (r *Registry) BatteryEnergy(b Handle) uint32 {
	return milli(powerinfo.WattHours(r.battery(b).Energy))
}

// BatteryEnergyFull returns the energy when full in mWh.
func (r *Registry) BatteryEnergyFull(b Handle) uint32 {
	return milli(powerinfo.WattHours(r.battery(b).EnergyFull))
}

// BatteryEnergyFullDesign returns the design energy in mWh.
func (r *Registry) BatteryEnergyFullDesign(b Handle) uint32 {
	return milli(powerinfo.WattHours(r.battery(b).EnergyFullDesign))
}

// BatteryEnergyRate returns the charge or discharge rate in mW.
func (r *Registry) BatteryEnergyRate(b Handle) uint32 {
	return milli(powerinfo.Watts(r.battery(b).EnergyRate))
}

// BatteryVoltage returns the voltage in mV.
func (r *Registry) BatteryVoltage(b Handle) uint32 {
	return milli(powerinfo.Volts(r.battery(b).Voltage))
}

// BatteryStateOfCharge returns the charge level, 0 to 100.
func (r *Registry) BatteryStateOfCharge(b Handle) float32 {
	return float32(r.battery(b).Percentage())
}

// BatteryStateOfHealth returns the full energy relative to design, 0 to 100.
func (r *Registry) BatteryStateOfHealth(b Handle) float32 {
	return float32(r.battery(b).StateOfHealth() * 100)
}

// BatteryTemperature returns the temperature in °C, or UnknownTemperature.
func (r *Registry) BatteryTemperature(b Handle) float32 {
	t := r.battery(b).Temperature
	if t == nil {
		return UnknownTemperature
	}
	return float32(t.Celsius())
}

// BatteryCycleCount returns the number of charge cycles, or UnknownCycleCount.
func (r *Registry) BatteryCycleCount(b Handle) uint32 {
	c := r.battery(b).CycleCount
	if c == nil {
		return UnknownCycleCount
	}
	return *c
}

// BatteryTimeToFull returns the seconds until full, or UnknownTime.
func (r *Registry) BatteryTimeToFull(b Handle) uint64 {
	d, ok := r.battery(b).TimeToFull()
	if !ok {
		return UnknownTime
	}
	return uint64(d.Seconds())
}

// BatteryTimeToEmpty returns the seconds until empty, or UnknownTime.
func (r *Registry) BatteryTimeToEmpty(b Handle) uint64 {
	d, ok := r.battery(b).TimeToEmpty()
	if !ok {
		return UnknownTime
	}
	return uint64(d.Seconds())
}

// BatteryState returns the powerinfo.State code.
func (r *Registry) BatteryState(b Handle) uint8 {
	return uint8(r.battery(b).State)
}

// BatteryTechnology returns the powerinfo.Technology code.
func (r *Registry) BatteryTechnology(b Handle) uint8 {
	return uint8(r.battery(b).Technology)
}

func (r *Registry) optionalString(s *string) Handle {
	if s == nil {
		return Null
	}
	return r.acquire(KindString, *s, Null)
}

// BatteryVendor returns a string handle to release with StrFree, or Null.
func (r *Registry) BatteryVendor(b Handle) Handle {
	return r.optionalString(r.battery(b).Vendor)
}

// BatteryModel returns a string handle to release with StrFree, or Null.
func (r *Registry) BatteryModel(b Handle) Handle {
	return r.optionalString(r.battery(b).Model)
}

// BatterySerialNumber returns a string handle to release with StrFree, or Null.
func (r *Registry) BatterySerialNumber(b Handle) Handle {
	return r.optionalString(r.battery(b).SerialNumber)
}
