package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/battinfo/pkg/client"
	"github.com/charlie0129/battinfo/pkg/config"
)

var (
	logLevel     = "info"
	configPath   = config.DefaultConfigPath
	sourceName   = ""
	sysfsRoot    = ""
	daemonSocket = ""
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: battinfo daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'battinfo daemon', or drop '--daemon-socket' to read batteries directly.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or set 'allowNonRootAccess' in the daemon config")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "battinfo",
		Short: "battinfo prints information about the batteries of this machine",
		Long: `battinfo prints information about the batteries of this machine.

Without a subcommand it prints one block per battery: vendor, model, state,
energy, rate, voltage, temperature, health and cycle count.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput {
				m, err := newManager()
				if err != nil {
					return err
				}
				defer m.Close()
				return printJSON(cmd.OutOrStdout(), m)
			}

			r, err := newRegistry()
			if err != nil {
				return err
			}
			return printBatteries(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print batteries as JSON")

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (.json, .yaml or .yml)")
	globalFlags.StringVar(&sourceName, "source", "", "battery source: auto, sysfs or system (default from config)")
	globalFlags.StringVar(&sysfsRoot, "sysfs-root", "", "power supply class directory for the sysfs source (default from config)")
	globalFlags.StringVar(&daemonSocket, "daemon-socket", "", "read batteries from the daemon listening on this unix socket")

	cmd.AddCommand(
		NewWatchCommand(),
		NewEventsCommand(),
		NewDaemonCommand(),
		NewVersionCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
