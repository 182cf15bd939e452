package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/battinfo/pkg/handle"
)

func NewWatchCommand() *cobra.Command {
	var (
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the first battery again and again",
		Long: `Print the first battery, refresh it in place and print it again, until
interrupted or --count prints are done.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				conf, err := loadConfig()
				if err != nil {
					return err
				}
				interval = conf.PollInterval()
			}

			r, err := newRegistry()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watch(ctx, cmd.OutOrStdout(), r, interval, count)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&interval, "interval", 0, "time between refreshes (default: pollIntervalSeconds from config)")
	f.IntVar(&count, "count", 0, "stop after this many prints, 0 means never")

	return cmd
}

// watch prints the first battery every interval, refreshing it in place
// between prints.
func watch(ctx context.Context, w io.Writer, r *handle.Registry, interval time.Duration, count int) (err error) {
	m := r.ManagerNew()
	if m == handle.Null {
		return fmt.Errorf("failed to create battery manager: %w", r.LastError())
	}
	defer func() {
		if ferr := r.ManagerFree(m); ferr != nil && err == nil {
			err = ferr
		}
	}()

	b, err := firstBattery(r, m)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := r.BatteryFree(b); ferr != nil && err == nil {
			err = ferr
		}
	}()

	for n := 1; ; n++ {
		printBattery(w, r, b, 0)
		if count > 0 && n >= count {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}

		if r.ManagerRefresh(m, b) != 0 {
			return fmt.Errorf("failed to refresh battery: %w", r.LastError())
		}
		logrus.Trace("battery refreshed")
		fmt.Fprintln(w)
	}
}

// firstBattery returns the first readable battery. The iterator is
// released before returning.
func firstBattery(r *handle.Registry, m handle.Handle) (b handle.Handle, err error) {
	it := r.ManagerIter(m)
	if it == handle.Null {
		return handle.Null, fmt.Errorf("failed to list batteries: %w", r.LastError())
	}
	defer func() {
		if ferr := r.IteratorFree(it); ferr != nil && err == nil {
			err = ferr
		}
	}()

	for {
		b = r.IteratorNext(it)
		if b != handle.Null {
			return b, nil
		}
		lerr := r.LastError()
		if lerr == nil {
			return handle.Null, fmt.Errorf("no battery found")
		}
		logrus.Warnf("failed to read battery: %v", lerr)
	}
}
