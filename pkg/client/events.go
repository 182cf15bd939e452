package client

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/events"
)

// SubscribeEvents connects to the daemon event stream. Events are
// delivered on the returned channel, which is closed once ctx is done or
// the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan events.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to subscribe to events: got %d", resp.StatusCode)
	}

	ch := make(chan events.Event, 16)
	go func() {
		defer close(ch)
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logrus.Debugf("failed to close event stream: %v", err)
			}
		}()

		readEvents(ctx, bufio.NewScanner(resp.Body), ch)
	}()

	return ch, nil
}

// readEvents parses a server-sent event stream. Events without a name
// (e.g. keep-alive comments) and the initial "ready" event are skipped.
func readEvents(ctx context.Context, sc *bufio.Scanner, ch chan<- events.Event) {
	var ev events.Event
	var data strings.Builder

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if ev.Name != "" && ev.Name != "ready" {
				ev.Data = []byte(strings.TrimSpace(data.String()))
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			}
			ev = events.Event{}
			data.Reset()
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			ev.ID = value
		case "event":
			ev.Name = value
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		}
	}
}
