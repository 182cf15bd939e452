// Package system reads batteries through the platform APIs wrapped by
// github.com/distatus/battery. It works on macOS, Windows, the BSDs and
// Linux, but exposes fewer details than the sysfs engine.
package system

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

const idPrefix = "system:"

// Replaced in tests.
var (
	getAllBatteries = battery.GetAll
	getBattery      = battery.Get
)

var _ powerinfo.Source = &Source{}

// Source enumerates batteries known to the operating system.
type Source struct{}

// New returns a system Source.
func New() *Source {
	return &Source{}
}

func (s *Source) Name() string {
	return "system"
}

// Devices queries every battery at once. Devices the platform failed to
// read are reported by the iterator at their position.
func (s *Source) Devices() (powerinfo.DeviceIterator, error) {
	bats, err := getAllBatteries()

	var perDevice battery.Errors
	switch e := err.(type) {
	case nil:
	case battery.Errors:
		perDevice = e
	default:
		return nil, pkgerrors.Wrap(err, "failed to list system batteries")
	}

	temp, tempOK := batteryTemperature()

	it := &iterator{}
	for i, b := range bats {
		var devErr error
		if i < len(perDevice) {
			devErr = perDevice[i]
		}

		snapshot, err := convert(i, b, devErr)
		if err == nil && tempOK {
			t := temp
			snapshot.Temperature = &t
		}
		it.items = append(it.items, item{battery: snapshot, err: err})
	}

	logrus.WithField("batteries", len(it.items)).Debug("listed system batteries")

	return it, nil
}

// Refresh queries the battery b was built from again.
func (s *Source) Refresh(b *powerinfo.Battery) error {
	if b == nil {
		return pkgerrors.New("battery is nil")
	}

	idx, err := parseID(b.ID)
	if err != nil {
		return err
	}

	raw, rawErr := getBattery(idx)
	nb, err := convert(idx, raw, rawErr)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to refresh %s", b.ID)
	}
	if temp, ok := batteryTemperature(); ok {
		nb.Temperature = &temp
	}
	*b = *nb

	return nil
}

func parseID(id string) (int, error) {
	s, found := strings.CutPrefix(id, idPrefix)
	if !found {
		return 0, pkgerrors.Wrapf(ErrUnknownDevice, "%q", id)
	}
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, pkgerrors.Wrapf(ErrUnknownDevice, "%q", id)
	}
	return idx, nil
}

// convert turns one battery reported by the platform into a snapshot.
// Fields named in an ErrPartial are left at their zero value.
func convert(idx int, b *battery.Battery, err error) (*powerinfo.Battery, error) {
	var partial battery.ErrPartial
	switch e := err.(type) {
	case nil:
	case battery.ErrPartial:
		partial = e
	case battery.ErrFatal:
		return nil, pkgerrors.Wrapf(e.Err, "battery %d", idx)
	default:
		return nil, pkgerrors.Wrapf(err, "battery %d", idx)
	}
	if b == nil {
		return nil, pkgerrors.Errorf("battery %d: no data", idx)
	}

	logger := logrus.WithField("battery", idx)
	if err != nil {
		logger.Debugf("partial battery data: %v", partial)
	}

	out := &powerinfo.Battery{
		ID:    fmt.Sprintf("%s%d", idPrefix, idx),
		State: powerinfo.Unknown,
	}

	if partial.State == nil {
		out.State = convertState(b.State)
	}
	if partial.Current == nil {
		out.Energy = milliWattHours(b.Current)
	}
	if partial.Design == nil {
		out.EnergyFullDesign = milliWattHours(b.Design)
	}
	if partial.Full == nil {
		out.EnergyFull = milliWattHours(b.Full)
	} else {
		out.EnergyFull = out.EnergyFullDesign
	}
	if partial.ChargeRate == nil {
		out.EnergyRate = physic.Power(math.Round(math.Abs(b.ChargeRate) * float64(physic.MilliWatt)))
	}
	if partial.Voltage == nil {
		out.Voltage = physic.ElectricPotential(math.Round(b.Voltage * float64(physic.Volt)))
	}

	switch {
	case out.EnergyFull > 0:
		out.StateOfCharge = powerinfo.Bound(float64(out.Energy) / float64(out.EnergyFull))
	case out.EnergyFullDesign > 0:
		out.StateOfCharge = powerinfo.Bound(float64(out.Energy) / float64(out.EnergyFullDesign))
	}

	return out, nil
}

func convertState(s battery.State) powerinfo.State {
	switch s {
	case battery.Charging:
		return powerinfo.Charging
	case battery.Discharging:
		return powerinfo.Discharging
	case battery.Empty:
		return powerinfo.Empty
	case battery.Full:
		return powerinfo.Full
	default:
		return powerinfo.Unknown
	}
}

func milliWattHours(mwh float64) physic.Energy {
	if mwh <= 0 || math.IsNaN(mwh) {
		return 0
	}
	return powerinfo.EnergyFromMicroWattHours(mwh * 1000)
}

type item struct {
	battery *powerinfo.Battery
	err     error
}

type iterator struct {
	items  []item
	closed bool
}

func (it *iterator) Next() (*powerinfo.Battery, error) {
	if it.closed {
		return nil, ErrIteratorClosed
	}
	if len(it.items) == 0 {
		return nil, nil
	}

	next := it.items[0]
	it.items = it.items[1:]
	return next.battery, next.err
}

func (it *iterator) Close() error {
	if it.closed {
		return ErrIteratorClosed
	}
	it.closed = true
	it.items = nil
	return nil
}
