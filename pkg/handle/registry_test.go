package handle

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/charlie0129/battinfo/pkg/battery"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

type fakeSource struct {
	batteries []*powerinfo.Battery
	failAt    int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Devices() (powerinfo.DeviceIterator, error) {
	return &fakeDevices{src: s}, nil
}

func (s *fakeSource) Refresh(b *powerinfo.Battery) error {
	if b.ID == "gone" {
		return errors.New("device removed")
	}
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
		return nil, errors.New("unreadable device")
	}
	return d.src.batteries[d.pos-1].Clone(), nil
}

func (d *fakeDevices) Close() error { return nil }

func ptr[T any](v T) *T { return &v }

func sampleBatteries() []*powerinfo.Battery {
	temp := physic.ZeroCelsius + 30500*physic.MilliKelvin
	return []*powerinfo.Battery{
		{
			ID:               "BAT0",
			Vendor:           ptr("Hewlett-Packard"),
			Model:            ptr("PABAS0241231"),
			State:            powerinfo.Discharging,
			Technology:       powerinfo.LithiumIon,
			StateOfCharge:    0.5,
			Energy:           20 * powerinfo.WattHour,
			EnergyFull:       40 * powerinfo.WattHour,
			EnergyFullDesign: 50 * powerinfo.WattHour,
			EnergyRate:       10 * physic.Watt,
			Voltage:          11400 * physic.MilliVolt,
			Temperature:      &temp,
			CycleCount:       ptr(uint32(117)),
		},
		{
			ID:               "BAT1",
			State:            powerinfo.Full,
			Technology:       powerinfo.LithiumPolymer,
			StateOfCharge:    1,
			Energy:           50 * powerinfo.WattHour,
			EnergyFull:       50 * powerinfo.WattHour,
			EnergyFullDesign: 50 * powerinfo.WattHour,
			Voltage:          12 * physic.Volt,
		},
	}
}

func newRegistry(src *fakeSource) *Registry {
	return NewRegistry(battery.WithSource(src))
}

func TestWalkReleasesEverything(t *testing.T) {
	r := newRegistry(&fakeSource{batteries: sampleBatteries()})

	m := r.ManagerNew()
	require.NotEqual(t, Null, m)
	it := r.ManagerIter(m)
	require.NotEqual(t, Null, it)

	n := 0
	for {
		b := r.IteratorNext(it)
		if b == Null {
			break
		}
		require.NoError(t, r.BatteryFree(b))
		n++
	}
	assert.False(t, r.HaveLastError())
	assert.Equal(t, 2, n)

	// End of sequence is terminal.
	assert.Equal(t, Null, r.IteratorNext(it))

	require.NoError(t, r.IteratorFree(it))
	require.NoError(t, r.ManagerFree(m))

	stats := r.Stats()
	assert.EqualValues(t, n+2, stats.Released)
	assert.Equal(t, stats.Acquired, stats.Released)
	assert.Zero(t, stats.Live)
}

func TestGetters(t *testing.T) {
	r := newRegistry(&fakeSource{batteries: sampleBatteries()})
	m := r.ManagerNew()
	it := r.ManagerIter(m)
	defer func() {
		require.NoError(t, r.IteratorFree(it))
		require.NoError(t, r.ManagerFree(m))
	}()

	b := r.IteratorNext(it)
	require.NotEqual(t, Null, b)
	defer r.BatteryFree(b)

	assert.EqualValues(t, 20000, r.BatteryEnergy(b))
	assert.EqualValues(t, 40000, r.BatteryEnergyFull(b))
	assert.EqualValues(t, 50000, r.BatteryEnergyFullDesign(b))
	assert.EqualValues(t, 10000, r.BatteryEnergyRate(b))
	assert.EqualValues(t, 11400, r.BatteryVoltage(b))
	assert.InDelta(t, 50, r.BatteryStateOfCharge(b), 1e-4)
	assert.InDelta(t, 80, r.BatteryStateOfHealth(b), 1e-4)
	assert.InDelta(t, 30.5, r.BatteryTemperature(b), 1e-4)
	assert.EqualValues(t, 117, r.BatteryCycleCount(b))
	assert.EqualValues(t, 7200, r.BatteryTimeToEmpty(b))
	assert.Equal(t, UnknownTime, r.BatteryTimeToFull(b))
	assert.EqualValues(t, powerinfo.Discharging, r.BatteryState(b))
	assert.EqualValues(t, powerinfo.LithiumIon, r.BatteryTechnology(b))

	vendor := r.BatteryVendor(b)
	require.NotEqual(t, Null, vendor)
	assert.Equal(t, "Hewlett-Packard", r.Str(vendor))
	require.NoError(t, r.StrFree(vendor))
	assert.Equal(t, Null, r.BatterySerialNumber(b), "absent string")

	b2 := r.IteratorNext(it)
	require.NotEqual(t, Null, b2)
	defer r.BatteryFree(b2)

	assert.Equal(t, UnknownTemperature, r.BatteryTemperature(b2))
	assert.Equal(t, UnknownCycleCount, r.BatteryCycleCount(b2))
	assert.Equal(t, UnknownTime, r.BatteryTimeToEmpty(b2))
	assert.EqualValues(t, 0, r.BatteryEnergyRate(b2))
	assert.Equal(t, float32(math.MaxFloat32), UnknownTemperature)
}

func TestTinyRateIsUnknownTime(t *testing.T) {
	bats := []*powerinfo.Battery{
		{ID: "BAT0", State: powerinfo.Discharging, Energy: 100 * powerinfo.WattHour, EnergyRate: 36 * physic.MicroWatt},
		{ID: "BAT1", State: powerinfo.Charging, Energy: 10 * powerinfo.WattHour, EnergyFull: 100 * powerinfo.WattHour, EnergyRate: 36 * physic.MicroWatt},
	}
	r := newRegistry(&fakeSource{batteries: bats})
	m := r.ManagerNew()
	it := r.ManagerIter(m)

	b0 := r.IteratorNext(it)
	require.NotEqual(t, Null, b0)
	assert.Equal(t, UnknownTime, r.BatteryTimeToEmpty(b0))

	b1 := r.IteratorNext(it)
	require.NotEqual(t, Null, b1)
	assert.Equal(t, UnknownTime, r.BatteryTimeToFull(b1))

	require.NoError(t, r.BatteryFree(b0))
	require.NoError(t, r.BatteryFree(b1))
	require.NoError(t, r.IteratorFree(it))
	require.NoError(t, r.ManagerFree(m))
}

func TestRelease(t *testing.T) {
	r := newRegistry(&fakeSource{batteries: sampleBatteries()})
	m := r.ManagerNew()
	it := r.ManagerIter(m)
	b := r.IteratorNext(it)
	s := r.BatteryModel(b)

	assert.NoError(t, r.BatteryFree(Null))
	assert.NoError(t, r.StrFree(Null))
	assert.NoError(t, r.IteratorFree(Null))
	assert.NoError(t, r.ManagerFree(Null))

	assert.ErrorIs(t, r.StrFree(b), ErrWrongKind)
	assert.ErrorIs(t, r.BatteryFree(m), ErrWrongKind)

	require.NoError(t, r.StrFree(s))
	assert.ErrorIs(t, r.StrFree(s), ErrInvalidHandle)

	require.NoError(t, r.BatteryFree(b))
	assert.ErrorIs(t, r.BatteryFree(b), ErrInvalidHandle)
	assert.Panics(t, func() { r.BatteryEnergy(b) })
	assert.Panics(t, func() { r.Str(s) })

	assert.ErrorIs(t, r.ManagerFree(m), ErrHandleInUse)
	require.NoError(t, r.IteratorFree(it))
	assert.ErrorIs(t, r.IteratorFree(it), ErrInvalidHandle)
	require.NoError(t, r.ManagerFree(m))
	assert.ErrorIs(t, r.ManagerFree(m), ErrInvalidHandle)

	assert.Zero(t, r.Stats().Live)
}

func TestLastError(t *testing.T) {
	r := newRegistry(&fakeSource{batteries: sampleBatteries(), failAt: 1})
	m := r.ManagerNew()
	it := r.ManagerIter(m)

	assert.Equal(t, Null, r.IteratorNext(it))
	require.True(t, r.HaveLastError())
	assert.EqualError(t, r.LastError(), "unreadable device")
	assert.False(t, r.HaveLastError(), "reading the error clears it")

	// The sequence goes on after a failed device.
	b := r.IteratorNext(it)
	require.NotEqual(t, Null, b)
	assert.False(t, r.HaveLastError())

	assert.Equal(t, 0, r.ManagerRefresh(m, b))
	assert.EqualValues(t, 51000, r.BatteryEnergy(b))

	assert.Equal(t, 1, r.ManagerRefresh(m, it))
	assert.ErrorIs(t, r.LastError(), ErrWrongKind)

	assert.Equal(t, Null, r.ManagerIter(b))
	assert.True(t, r.HaveLastError())
	r.ClearLastError()
	assert.Nil(t, r.LastError())

	require.NoError(t, r.BatteryFree(b))
	require.NoError(t, r.IteratorFree(it))
	require.NoError(t, r.ManagerFree(m))
}
