package config

import "time"

type Config interface {
	// Source is the battery source name: auto, sysfs or system.
	Source() string
	SysfsRoot() string
	PollInterval() time.Duration
	DaemonSocket() string
	AllowNonRootAccess() bool

	SetSource(string)
	SetSysfsRoot(string)
	SetPollInterval(time.Duration)
	SetDaemonSocket(string)
	SetAllowNonRootAccess(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
