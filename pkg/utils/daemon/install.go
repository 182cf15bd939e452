package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Replaced in tests.
var (
	unitPath   = "/etc/systemd/system/battinfo.service"
	runCommand = func(name string, args ...string) error {
		return exec.Command(name, args...).Run()
	}
)

const unitTemplate = `[Unit]
Description=battinfo daemon
After=multi-user.target

[Service]
Type=simple
ExecStart=/path/to/battinfo daemon --config /path/to/config
Restart=on-failure
ExecReload=/bin/kill -HUP $MAINPID

[Install]
WantedBy=multi-user.target
`

// Unit renders the systemd unit running exePath with configPath.
func Unit(exePath, configPath string) string {
	return strings.NewReplacer(
		"/path/to/battinfo", exePath,
		"/path/to/config", configPath,
	).Replace(unitTemplate)
}

// Install installs the current executable as a systemd service and starts it.
func Install(configPath string) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	return installUnit(Unit(exePath, configPath))
}

func installUnit(unit string) error {
	logrus.Infof("writing systemd unit to %s", unitPath)

	// mkdir -p
	err := os.MkdirAll(filepath.Dir(unitPath), 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(unitPath), err)
	}

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	err = os.WriteFile(unitPath, []byte(unit), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	logrus.Infof("starting battinfo")

	err = runCommand("systemctl", "daemon-reload")
	if err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	err = runCommand("systemctl", "enable", "--now", filepath.Base(unitPath))
	if err != nil {
		return fmt.Errorf("failed to enable %s: %w", filepath.Base(unitPath), err)
	}

	return nil
}
