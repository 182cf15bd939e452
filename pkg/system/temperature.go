package system

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

// Replaced in tests.
var hostSensorsTemperatures = host.SensorsTemperatures

// Sensor keys known to measure the battery. TBxT are the SMC keys of
// Apple laptops.
var batterySensorKeys = []string{"TB0T", "TB1T", "TB2T"}

func isBatterySensor(key string) bool {
	for _, k := range batterySensorKeys {
		if strings.EqualFold(key, k) {
			return true
		}
	}

	lower := strings.ToLower(key)
	return strings.Contains(lower, "battery") || strings.HasPrefix(lower, "bat")
}

// batteryTemperature returns the reading of the first battery sensor.
// The platform APIs do not expose which battery a sensor belongs to, so
// the same value is used for every battery.
func batteryTemperature() (physic.Temperature, bool) {
	stats, err := hostSensorsTemperatures()
	if err != nil {
		// gopsutil returns partial results along with warnings.
		logrus.Tracef("reading temperature sensors: %v", err)
	}

	for _, s := range stats {
		if !isBatterySensor(s.SensorKey) || s.Temperature <= 0 {
			continue
		}
		logrus.WithField("sensor", s.SensorKey).Trace("using battery temperature sensor")
		return physic.ZeroCelsius + physic.Temperature(s.Temperature*float64(physic.Kelvin)), true
	}

	return 0, false
}
