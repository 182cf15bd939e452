package powerinfo

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// WattHour is the energy unit batteries are usually rated in.
const WattHour = 3600 * physic.Joule

// EnergyFromMicroWattHours converts a µWh reading into physic.Energy.
func EnergyFromMicroWattHours(uwh float64) physic.Energy {
	return physic.Energy(math.Round(uwh * float64(WattHour) / 1e6))
}

// EnergyFromCharge converts a µAh charge at the given voltage into physic.Energy.
func EnergyFromCharge(uah float64, v physic.ElectricPotential) physic.Energy {
	return physic.Energy(math.Round(uah / 1e6 * 3600 * float64(v)))
}

// PowerFromCurrent converts a µA current at the given voltage into physic.Power.
func PowerFromCurrent(ua float64, v physic.ElectricPotential) physic.Power {
	return physic.Power(math.Round(ua / 1e6 * float64(v)))
}

// WattHours returns e in Wh.
func WattHours(e physic.Energy) float64 {
	return float64(e) / float64(WattHour)
}

// Watts returns p in W.
func Watts(p physic.Power) float64 {
	return float64(p) / float64(physic.Watt)
}

// Volts returns v in V.
func Volts(v physic.ElectricPotential) float64 {
	return float64(v) / float64(physic.Volt)
}

// Bound caps a ratio into 0..1. NaN becomes 0.
func Bound(r float64) float64 {
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
