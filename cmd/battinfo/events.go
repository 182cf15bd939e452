package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/battinfo/pkg/client"
	"github.com/charlie0129/battinfo/pkg/events"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

func NewEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print battery events streamed by the daemon",
		Long: `Print battery state changes, and batteries appearing or disappearing, as
the daemon reports them. Runs until interrupted or the daemon goes away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return streamEvents(ctx, cmd.OutOrStdout(), client.NewClient(conf.DaemonSocket()))
		},
	}
}

// streamEvents prints events until ctx is done or the stream ends.
func streamEvents(ctx context.Context, w io.Writer, c *client.Client) error {
	ch, err := c.SubscribeEvents(ctx)
	if err != nil {
		return err
	}

	for ev := range ch {
		if err := printEvent(w, ev); err != nil {
			return err
		}
	}

	return nil
}

func printEvent(w io.Writer, ev events.Event) error {
	switch ev.Name {
	case events.BatteryState:
		p, err := events.DecodeAs[events.BatteryStateEvent](ev)
		if err != nil {
			return fmt.Errorf("failed to decode %s event: %w", ev.Name, err)
		}
		fmt.Fprintf(w, "%s  battery %d (%s): %s -> %s, %.2f %%\n",
			eventTime(p.Ts), p.Index, p.Device, p.From, stateText(uint8(powerinfo.ParseState(p.To))), p.Percentage)
	case events.BatteryAdded, events.BatteryRemoved:
		p, err := events.DecodeAs[events.BatteryPresenceEvent](ev)
		if err != nil {
			return fmt.Errorf("failed to decode %s event: %w", ev.Name, err)
		}
		what := "added"
		if ev.Name == events.BatteryRemoved {
			what = "removed"
		}
		fmt.Fprintf(w, "%s  battery %d (%s): %s\n", eventTime(p.Ts), p.Index, p.Device, what)
	default:
		fmt.Fprintf(w, "%s: %s\n", ev.Name, ev.Data)
	}

	return nil
}

func eventTime(ts int64) string {
	return time.Unix(ts, 0).Format(time.Kitchen)
}
