package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/charlie0129/battinfo/pkg/battery"
	"github.com/charlie0129/battinfo/pkg/handle"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

type fakeSource struct {
	batteries []*powerinfo.Battery
	// failAt makes the n-th device (1-based) fail to read.
	failAt    int
	refreshes int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Devices() (powerinfo.DeviceIterator, error) {
	return &fakeDevices{src: s}, nil
}

func (s *fakeSource) Refresh(b *powerinfo.Battery) error {
	s.refreshes++
	b.Energy += powerinfo.WattHour
	return nil
}

type fakeDevices struct {
	src *fakeSource
	pos int
}

func (d *fakeDevices) Next() (*powerinfo.Battery, error) {
	if d.pos >= len(d.src.batteries) {
		return nil, nil
	}
	d.pos++
	if d.pos == d.src.failAt {
		return nil, errors.New("unreadable")
	}
	return d.src.batteries[d.pos-1].Clone(), nil
}

func (d *fakeDevices) Close() error { return nil }

func strPtr(s string) *string { return &s }

func testBatteries() []*powerinfo.Battery {
	temp := physic.ZeroCelsius + 31*physic.Kelvin
	cycles := uint32(42)
	return []*powerinfo.Battery{
		{
			ID:               "/sys/class/power_supply/BAT0",
			Vendor:           strPtr("Hewlett-Packard"),
			Model:            strPtr("PABAS0241231"),
			SerialNumber:     strPtr("41167"),
			State:            powerinfo.Charging,
			Technology:       powerinfo.LithiumIon,
			StateOfCharge:    0.5,
			Energy:           20 * powerinfo.WattHour,
			EnergyFull:       40 * powerinfo.WattHour,
			EnergyFullDesign: 50 * powerinfo.WattHour,
			EnergyRate:       10 * physic.Watt,
			Voltage:          11400 * physic.MilliVolt,
			Temperature:      &temp,
			CycleCount:       &cycles,
		},
		{
			ID:               "/sys/class/power_supply/BAT1",
			State:            powerinfo.Discharging,
			StateOfCharge:    0.25,
			Energy:           10 * powerinfo.WattHour,
			EnergyFull:       40 * powerinfo.WattHour,
			EnergyFullDesign: 40 * powerinfo.WattHour,
			EnergyRate:       5 * physic.Watt,
			Voltage:          12 * physic.Volt,
		},
	}
}

func TestPrintBatteries(t *testing.T) {
	color.NoColor = true

	r := handle.NewRegistry(battery.WithSource(&fakeSource{batteries: testBatteries()}))
	var buf bytes.Buffer
	require.NoError(t, printBatteries(&buf, r))
	out := buf.String()

	for _, want := range []string{
		"Device:\t\t\t0\n",
		"vendor:\t\t\tHewlett-Packard\n",
		"model:\t\t\tPABAS0241231\n",
		"S/N:\t\t\t41167\n",
		"  state:\t\tcharging\n",
		"  energy:\t\t20.00 Wh\n",
		"  energy-full:\t\t40.00 Wh\n",
		"  energy-full-design:\t50.00 Wh\n",
		"  energy-rate:\t\t10.00 W\n",
		"  voltage:\t\t11.40 V\n",
		"  technology:\t\tlithium-ion\n",
		"  time-to-full:\t\t7200 sec.\n",
		"  percentage:\t\t50.00 %\n",
		"  temperature:\t\t31.00 C\n",
		"  capacity:\t\t80.00 %\n",
		"  cycle-count:\t\t42\n",
		"Device:\t\t\t1\n",
		"vendor:\t\t\tN/A\n",
		"  state:\t\tdischarging\n",
		"  time-to-empty:\t7200 sec.\n",
		"  temperature:\t\tN/A\n",
		"  cycle-count:\t\tN/A\n",
		"  technology:\t\tunknown\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 2, strings.Count(out, "Device:"))

	// Two batteries, the iterator and the manager, plus three strings.
	stats := r.Stats()
	assert.Zero(t, stats.Live)
	assert.EqualValues(t, 2+2+3, stats.Released)
	assert.Equal(t, stats.Acquired, stats.Released)
}

func TestPrintBatteriesSkipsUnreadable(t *testing.T) {
	color.NoColor = true

	r := handle.NewRegistry(battery.WithSource(&fakeSource{batteries: testBatteries(), failAt: 1}))
	var buf bytes.Buffer
	require.NoError(t, printBatteries(&buf, r))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Device:"))
	assert.Contains(t, out, "  state:\t\tdischarging\n")
	assert.Zero(t, r.Stats().Live)
}

func TestPrintBatteriesNone(t *testing.T) {
	r := handle.NewRegistry(battery.WithSource(&fakeSource{}))
	var buf bytes.Buffer
	require.NoError(t, printBatteries(&buf, r))
	assert.Empty(t, buf.String())
	assert.EqualValues(t, 2, r.Stats().Released)
}

func TestWatch(t *testing.T) {
	color.NoColor = true

	src := &fakeSource{batteries: testBatteries()}
	r := handle.NewRegistry(battery.WithSource(src))
	var buf bytes.Buffer
	require.NoError(t, watch(context.Background(), &buf, r, time.Millisecond, 3))

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "Device:\t\t\t0"))
	assert.Contains(t, out, "  energy:\t\t20.00 Wh\n")
	assert.Contains(t, out, "  energy:\t\t22.00 Wh\n")
	assert.Equal(t, 2, src.refreshes)
	assert.Zero(t, r.Stats().Live)
}

func TestWatchStopsOnCancel(t *testing.T) {
	color.NoColor = true

	r := handle.NewRegistry(battery.WithSource(&fakeSource{batteries: testBatteries()}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	require.NoError(t, watch(ctx, &buf, r, time.Hour, 0))
	assert.Equal(t, 1, strings.Count(buf.String(), "Device:"))
	assert.Zero(t, r.Stats().Live)
}

func TestWatchNoBattery(t *testing.T) {
	r := handle.NewRegistry(battery.WithSource(&fakeSource{}))
	err := watch(context.Background(), &bytes.Buffer{}, r, time.Millisecond, 1)
	assert.ErrorContains(t, err, "no battery found")
	assert.Zero(t, r.Stats().Live)
}

func TestPrintJSON(t *testing.T) {
	m, err := battery.NewManager(battery.WithSource(&fakeSource{batteries: testBatteries()}))
	require.NoError(t, err)
	defer m.Close()

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, m))

	var out []batteryJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)

	assert.Equal(t, "charging", out[0].State)
	assert.Equal(t, "lithium-ion", out[0].Technology)
	assert.InDelta(t, 20, out[0].EnergyWh, 1e-9)
	assert.InDelta(t, 80, out[0].CapacityPercent, 1e-9)
	require.NotNil(t, out[0].TimeToFullSeconds)
	assert.EqualValues(t, 7200, *out[0].TimeToFullSeconds)
	assert.Nil(t, out[0].TimeToEmptySeconds)
	require.NotNil(t, out[0].TemperatureC)
	assert.InDelta(t, 31, *out[0].TemperatureC, 1e-6)

	assert.Nil(t, out[1].Vendor)
	assert.Nil(t, out[1].CycleCount)
	require.NotNil(t, out[1].TimeToEmptySeconds)
	assert.EqualValues(t, 7200, *out[1].TimeToEmptySeconds)
}
