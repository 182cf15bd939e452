package powerinfo

import (
	"math"
	"time"

	"periph.io/x/conn/v3/physic"
)

const (
	maxTimeToFull  = 10 * time.Hour
	maxTimeToEmpty = 10 * 24 * time.Hour
)

// Battery is a snapshot of a single battery device, taken at enumeration
// time. It does not change until its manager refreshes it.
//
// Units:
//   - Energy, EnergyFull, EnergyFullDesign: physic.Energy (nJ)
//   - EnergyRate: physic.Power (nW), never negative; consult State for the direction
//   - Voltage: physic.ElectricPotential (nV)
//   - StateOfCharge: ratio in 0..1
type Battery struct {
	// ID identifies the device within its source, e.g. a sysfs directory.
	ID string `json:"id"`

	Vendor       *string `json:"vendor,omitempty"`
	Model        *string `json:"model,omitempty"`
	SerialNumber *string `json:"serialNumber,omitempty"`

	State      State      `json:"state"`
	Technology Technology `json:"technology"`

	StateOfCharge    float64                  `json:"stateOfCharge"`
	Energy           physic.Energy            `json:"energy"`
	EnergyFull       physic.Energy            `json:"energyFull"`
	EnergyFullDesign physic.Energy            `json:"energyFullDesign"`
	EnergyRate       physic.Power             `json:"energyRate"`
	Voltage          physic.ElectricPotential `json:"voltage"`

	Temperature *physic.Temperature `json:"temperature,omitempty"`
	CycleCount  *uint32             `json:"cycleCount,omitempty"`
}

// Percentage returns the state of charge in percent.
func (b *Battery) Percentage() float64 {
	return b.StateOfCharge * 100
}

// StateOfHealth returns how much energy the battery can hold relative to
// its design, as a ratio in 0..1.
func (b *Battery) StateOfHealth() float64 {
	if b.EnergyFull == 0 || b.EnergyFullDesign == 0 {
		return 1
	}
	return Bound(float64(b.EnergyFull) / float64(b.EnergyFullDesign))
}

// TimeToFull estimates the remaining charging time from the instant
// energy rate. It reports false when the battery is not charging, the
// rate is zero, or the estimate is implausible.
func (b *Battery) TimeToFull() (time.Duration, bool) {
	if b.State != Charging || b.EnergyRate == 0 {
		return 0, false
	}
	// Some drivers report energy above energy_full while still charging.
	left := b.EnergyFull - b.Energy
	if left < 0 {
		return 0, false
	}
	return estimate(float64(left), float64(b.EnergyRate), maxTimeToFull)
}

// TimeToEmpty estimates the remaining discharging time from the instant
// energy rate. It reports false when the battery is not discharging, the
// rate is zero, or the estimate is implausible.
func (b *Battery) TimeToEmpty() (time.Duration, bool) {
	if b.State != Discharging || b.EnergyRate == 0 {
		return 0, false
	}
	return estimate(float64(b.Energy), float64(b.EnergyRate), maxTimeToEmpty)
}

// Clone returns a deep copy of b.
func (b *Battery) Clone() *Battery {
	if b == nil {
		return nil
	}
	c := *b
	c.Vendor = clonePtr(b.Vendor)
	c.Model = clonePtr(b.Model)
	c.SerialNumber = clonePtr(b.SerialNumber)
	c.Temperature = clonePtr(b.Temperature)
	c.CycleCount = clonePtr(b.CycleCount)
	return &c
}

// estimate divides energy (nJ) by rate (nW). The bound is checked in
// seconds, tiny rates overflow a time.Duration.
func estimate(energy, rate float64, limit time.Duration) (time.Duration, bool) {
	secs := energy / rate
	if math.IsNaN(secs) || secs < 0 || secs > limit.Seconds() {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
