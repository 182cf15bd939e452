package main

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/battery"
	"github.com/charlie0129/battinfo/pkg/client"
	"github.com/charlie0129/battinfo/pkg/config"
	"github.com/charlie0129/battinfo/pkg/handle"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// loadConfig reads the config file. Flags given on the command line win.
func loadConfig() (*config.File, error) {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return nil, err
	}
	if sourceName != "" {
		conf.SetSource(sourceName)
	}
	if sysfsRoot != "" {
		conf.SetSysfsRoot(sysfsRoot)
	}
	if daemonSocket != "" {
		conf.SetDaemonSocket(daemonSocket)
	}
	logrus.WithFields(conf.LogrusFields()).Debug("config loaded")

	return conf, nil
}

// newSource picks where batteries are read from. --daemon-socket reads
// from a running daemon, otherwise the configured local source is used.
func newSource() (powerinfo.Source, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if daemonSocket != "" {
		return client.NewSource(client.NewClient(conf.DaemonSocket())), nil
	}
	return battery.NewSource(conf.Source(), conf.SysfsRoot())
}

func newManager() (*battery.Manager, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	return battery.NewManager(battery.WithSource(src))
}

func newRegistry() (*handle.Registry, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	return handle.NewRegistry(battery.WithSource(src)), nil
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func stateText(code uint8) string {
	state := powerinfo.State(code)
	switch state {
	case powerinfo.Charging:
		return color.GreenString(state.String())
	case powerinfo.Discharging:
		return color.YellowString(state.String())
	case powerinfo.Empty:
		return color.RedString(state.String())
	default:
		return state.String()
	}
}
