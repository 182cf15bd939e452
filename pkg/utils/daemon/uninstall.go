package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

func Uninstall() error {
	logrus.Infof("stopping battinfo")

	// if the unit doesn't exist, there is nothing to stop
	_, err := os.Stat(unitPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", unitPath, err)
	}

	err = runCommand("systemctl", "disable", "--now", filepath.Base(unitPath))
	if err != nil {
		return fmt.Errorf("failed to disable %s: %w. Are you root?", filepath.Base(unitPath), err)
	}

	logrus.Infof("removing systemd unit")

	err = os.Remove(unitPath)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w. Are you root?", unitPath, err)
	}

	return runCommand("systemctl", "daemon-reload")
}
