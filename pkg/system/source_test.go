package system

import (
	"errors"
	"testing"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

func stubSensors(t *testing.T, stats []host.TemperatureStat, err error) {
	t.Helper()
	orig := hostSensorsTemperatures
	hostSensorsTemperatures = func() ([]host.TemperatureStat, error) {
		return stats, err
	}
	t.Cleanup(func() { hostSensorsTemperatures = orig })
}

func stubGetAll(t *testing.T, bats []*battery.Battery, err error) {
	t.Helper()
	orig := getAllBatteries
	getAllBatteries = func() ([]*battery.Battery, error) {
		return bats, err
	}
	t.Cleanup(func() { getAllBatteries = orig })
}

func TestConvert(t *testing.T) {
	b, err := convert(0, &battery.Battery{
		State:      battery.Discharging,
		Current:    20000,
		Full:       40000,
		Design:     50000,
		ChargeRate: -8000,
		Voltage:    12.3,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "system:0", b.ID)
	assert.Equal(t, powerinfo.Discharging, b.State)
	assert.Equal(t, 20*powerinfo.WattHour, b.Energy)
	assert.Equal(t, 40*powerinfo.WattHour, b.EnergyFull)
	assert.Equal(t, 50*powerinfo.WattHour, b.EnergyFullDesign)
	assert.Equal(t, 8*physic.Watt, b.EnergyRate)
	assert.Equal(t, 12300*physic.MilliVolt, b.Voltage)
	assert.InDelta(t, 0.5, b.StateOfCharge, 1e-9)
	assert.InDelta(t, 0.8, b.StateOfHealth(), 1e-9)

	tte, ok := b.TimeToEmpty()
	require.True(t, ok)
	assert.InDelta(t, 9000, tte.Seconds(), 1e-6)
}

func TestConvertPartial(t *testing.T) {
	b, err := convert(1, &battery.Battery{
		State:   battery.Charging,
		Current: 10000,
		Full:    123,
		Design:  20000,
	}, battery.ErrPartial{Full: errors.New("no full")})
	require.NoError(t, err)

	assert.Equal(t, powerinfo.Charging, b.State)
	assert.Equal(t, b.EnergyFullDesign, b.EnergyFull, "full falls back to design")
	assert.InDelta(t, 0.5, b.StateOfCharge, 1e-9)
}

func TestConvertFatal(t *testing.T) {
	_, err := convert(0, nil, battery.ErrFatal{Err: errors.New("boom")})
	assert.ErrorContains(t, err, "boom")

	_, err = convert(0, nil, nil)
	assert.Error(t, err)
}

func TestConvertState(t *testing.T) {
	tests := []struct {
		in   battery.State
		want powerinfo.State
	}{
		{battery.Charging, powerinfo.Charging},
		{battery.Discharging, powerinfo.Discharging},
		{battery.Empty, powerinfo.Empty},
		{battery.Full, powerinfo.Full},
		{battery.Unknown, powerinfo.Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convertState(tt.in))
	}
}

func TestDevices(t *testing.T) {
	stubSensors(t, []host.TemperatureStat{
		{SensorKey: "coretemp_package_id_0", Temperature: 60},
		{SensorKey: "TB1T", Temperature: 31.5},
		{SensorKey: "battery", Temperature: 40},
	}, nil)
	stubGetAll(t, []*battery.Battery{
		{State: battery.Full, Current: 50000, Full: 50000, Design: 50000, Voltage: 12},
		{},
	}, battery.Errors{nil, battery.ErrFatal{Err: errors.New("unreadable")}})

	it, err := New().Devices()
	require.NoError(t, err)

	b, err := it.Next()
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, powerinfo.Full, b.State)
	require.NotNil(t, b.Temperature)
	assert.InDelta(t, 31.5, b.Temperature.Celsius(), 1e-6)

	// A failing device is reported without ending the sequence.
	_, err = it.Next()
	assert.ErrorContains(t, err, "unreadable")

	b, err = it.Next()
	assert.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, it.Close())
	assert.ErrorIs(t, it.Close(), ErrIteratorClosed)
}

func TestDevicesFatal(t *testing.T) {
	stubGetAll(t, nil, battery.ErrFatal{Err: errors.New("no api")})

	_, err := New().Devices()
	assert.ErrorContains(t, err, "no api")
}

func TestRefresh(t *testing.T) {
	stubSensors(t, nil, errors.New("not supported"))

	orig := getBattery
	getBattery = func(idx int) (*battery.Battery, error) {
		require.Equal(t, 2, idx)
		return &battery.Battery{State: battery.Charging, Current: 1000, Full: 2000, Design: 2000, Voltage: 11}, nil
	}
	t.Cleanup(func() { getBattery = orig })

	b := &powerinfo.Battery{ID: "system:2"}
	require.NoError(t, New().Refresh(b))
	assert.Equal(t, powerinfo.Charging, b.State)
	assert.Nil(t, b.Temperature)
	assert.InDelta(t, 0.5, b.StateOfCharge, 1e-9)

	assert.ErrorIs(t, New().Refresh(&powerinfo.Battery{ID: "/sys/class/power_supply/BAT0"}), ErrUnknownDevice)
}

func TestIsBatterySensor(t *testing.T) {
	for key, want := range map[string]bool{
		"TB0T":              true,
		"tb2t":              true,
		"BAT0":              true,
		"acpi_battery_temp": true,
		"coretemp_core_0":   false,
		"nvme_composite":    false,
		"TC0P":              false,
	} {
		assert.Equal(t, want, isBatterySensor(key), key)
	}
}
