package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charlie0129/battinfo/pkg/battery"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

type batteryJSON struct {
	Index              int      `json:"index"`
	Device             string   `json:"device"`
	Vendor             *string  `json:"vendor"`
	Model              *string  `json:"model"`
	SerialNumber       *string  `json:"serialNumber"`
	State              string   `json:"state"`
	Technology         string   `json:"technology"`
	EnergyWh           float64  `json:"energyWh"`
	EnergyFullWh       float64  `json:"energyFullWh"`
	EnergyFullDesignWh float64  `json:"energyFullDesignWh"`
	EnergyRateWatts    float64  `json:"energyRateWatts"`
	VoltageVolts       float64  `json:"voltageVolts"`
	Percentage         float64  `json:"percentage"`
	CapacityPercent    float64  `json:"capacityPercent"`
	TemperatureC       *float64 `json:"temperatureCelsius"`
	CycleCount         *uint32  `json:"cycleCount"`
	TimeToFullSeconds  *int64   `json:"timeToFullSeconds"`
	TimeToEmptySeconds *int64   `json:"timeToEmptySeconds"`
}

func seconds(d time.Duration, ok bool) *int64 {
	if !ok {
		return nil
	}
	s := int64(d / time.Second)
	return &s
}

func toBatteryJSON(idx int, b *powerinfo.Battery) batteryJSON {
	out := batteryJSON{
		Index:              idx,
		Device:             b.ID,
		Vendor:             b.Vendor,
		Model:              b.Model,
		SerialNumber:       b.SerialNumber,
		State:              b.State.String(),
		Technology:         b.Technology.String(),
		EnergyWh:           powerinfo.WattHours(b.Energy),
		EnergyFullWh:       powerinfo.WattHours(b.EnergyFull),
		EnergyFullDesignWh: powerinfo.WattHours(b.EnergyFullDesign),
		EnergyRateWatts:    powerinfo.Watts(b.EnergyRate),
		VoltageVolts:       powerinfo.Volts(b.Voltage),
		Percentage:         b.Percentage(),
		CapacityPercent:    b.StateOfHealth() * 100,
		CycleCount:         b.CycleCount,
		TimeToFullSeconds:  seconds(b.TimeToFull()),
		TimeToEmptySeconds: seconds(b.TimeToEmpty()),
	}
	if b.Temperature != nil {
		c := b.Temperature.Celsius()
		out.TemperatureC = &c
	}
	return out
}

// printJSON prints every battery of m as an indented JSON array.
func printJSON(w io.Writer, m *battery.Manager) error {
	bats, err := m.All()
	if err != nil {
		return err
	}

	out := make([]batteryJSON, 0, len(bats))
	for i, b := range bats {
		out = append(out, toBatteryJSON(i, b))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
