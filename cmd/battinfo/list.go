package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/handle"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// printBatteries walks every battery through the handle API and prints a
// block for each. Every handle it acquires is released before returning.
func printBatteries(w io.Writer, r *handle.Registry) (err error) {
	m := r.ManagerNew()
	if m == handle.Null {
		return fmt.Errorf("failed to create battery manager: %w", r.LastError())
	}
	defer func() {
		if ferr := r.ManagerFree(m); ferr != nil && err == nil {
			err = ferr
		}
	}()

	it := r.ManagerIter(m)
	if it == handle.Null {
		return fmt.Errorf("failed to list batteries: %w", r.LastError())
	}
	defer func() {
		if ferr := r.IteratorFree(it); ferr != nil && err == nil {
			err = ferr
		}
	}()

	var idx uint32
	for {
		b := r.IteratorNext(it)
		if b == handle.Null {
			lerr := r.LastError()
			if lerr == nil {
				break
			}
			if errors.Is(lerr, handle.ErrInvalidHandle) || errors.Is(lerr, handle.ErrWrongKind) {
				return lerr
			}
			// The next call moves on to the following device.
			logrus.Warnf("failed to read battery: %v", lerr)
			continue
		}

		printBattery(w, r, b, idx)
		if err := r.BatteryFree(b); err != nil {
			return err
		}
		idx++
	}

	return nil
}

func fromMillis(v uint32) float32 {
	return float32(v) / 1000
}

// printString prints a string field and releases its handle.
func printString(w io.Writer, r *handle.Registry, label string, s handle.Handle) {
	if s == handle.Null {
		fmt.Fprintf(w, "%s\t\t\tN/A\n", label)
		return
	}
	fmt.Fprintf(w, "%s\t\t\t%s\n", label, r.Str(s))
	if err := r.StrFree(s); err != nil {
		logrus.Warnf("failed to free string: %v", err)
	}
}

func printBattery(w io.Writer, r *handle.Registry, b handle.Handle, idx uint32) {
	fmt.Fprintf(w, "%s\t\t\t%d\n", bold("Device:"), idx)

	printString(w, r, "vendor:", r.BatteryVendor(b))
	printString(w, r, "model:", r.BatteryModel(b))
	printString(w, r, "S/N:", r.BatterySerialNumber(b))

	fmt.Fprintln(w, bold("battery"))
	state := r.BatteryState(b)
	fmt.Fprintf(w, "  state:\t\t%s\n", stateText(state))
	fmt.Fprintf(w, "  energy:\t\t%.2f Wh\n", fromMillis(r.BatteryEnergy(b)))
	fmt.Fprintf(w, "  energy-full:\t\t%.2f Wh\n", fromMillis(r.BatteryEnergyFull(b)))
	fmt.Fprintf(w, "  energy-full-design:\t%.2f Wh\n", fromMillis(r.BatteryEnergyFullDesign(b)))
	fmt.Fprintf(w, "  energy-rate:\t\t%.2f W\n", fromMillis(r.BatteryEnergyRate(b)))
	fmt.Fprintf(w, "  voltage:\t\t%.2f V\n", fromMillis(r.BatteryVoltage(b)))
	fmt.Fprintf(w, "  technology:\t\t%s\n", powerinfo.Technology(r.BatteryTechnology(b)))

	if ttf := r.BatteryTimeToFull(b); powerinfo.State(state) == powerinfo.Charging && ttf != handle.UnknownTime && ttf > 0 {
		fmt.Fprintf(w, "  time-to-full:\t\t%d sec.\n", ttf)
	}
	if tte := r.BatteryTimeToEmpty(b); powerinfo.State(state) == powerinfo.Discharging && tte != handle.UnknownTime && tte > 0 {
		fmt.Fprintf(w, "  time-to-empty:\t%d sec.\n", tte)
	}

	fmt.Fprintf(w, "  percentage:\t\t%.2f %%\n", r.BatteryStateOfCharge(b))
	if temp := r.BatteryTemperature(b); temp < handle.UnknownTemperature {
		fmt.Fprintf(w, "  temperature:\t\t%.2f C\n", temp)
	} else {
		fmt.Fprintf(w, "  temperature:\t\tN/A\n")
	}
	fmt.Fprintf(w, "  capacity:\t\t%.2f %%\n", r.BatteryStateOfHealth(b))
	if cycles := r.BatteryCycleCount(b); cycles < handle.UnknownCycleCount {
		fmt.Fprintf(w, "  cycle-count:\t\t%d\n", cycles)
	} else {
		fmt.Fprintf(w, "  cycle-count:\t\tN/A\n")
	}
}
