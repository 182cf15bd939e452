package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/battinfo/pkg/client"
	"github.com/charlie0129/battinfo/pkg/events"
)

func serveUnix(t *testing.T, h http.Handler) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "battinfo")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "d.sock")
	l, err := net.Listen("unix", sock)
	require.NoError(t, err)

	srv := &http.Server{Handler: h}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	return sock
}

func TestStreamEvents(t *testing.T) {
	color.NoColor = true
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/events", func(c *gin.Context) {
		c.Render(-1, sse.Event{Event: "ready", Data: "ok"})
		c.Render(-1, sse.Event{Id: "1", Event: events.BatteryState,
			Data: events.BatteryStateEvent{Index: 0, Device: "BAT0", From: "charging", To: "full", Percentage: 100}})
		c.Render(-1, sse.Event{Id: "2", Event: events.BatteryRemoved,
			Data: events.BatteryPresenceEvent{Index: 1, Device: "BAT1"}})
	})

	var buf bytes.Buffer
	c := client.NewClient(serveUnix(t, r))
	require.NoError(t, streamEvents(context.Background(), &buf, c))

	out := buf.String()
	assert.Contains(t, out, "battery 0 (BAT0): charging -> full, 100.00 %\n")
	assert.Contains(t, out, "battery 1 (BAT1): removed\n")
	assert.NotContains(t, out, "ready")
}

func TestStreamEventsDaemonNotRunning(t *testing.T) {
	c := client.NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	err := streamEvents(context.Background(), &bytes.Buffer{}, c)
	assert.ErrorIs(t, err, client.ErrDaemonNotRunning)
}

func TestPrintEventUnknown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEvent(&buf, events.Event{Name: "battery.other", Data: []byte(`{"x":1}`)}))
	assert.Equal(t, "battery.other: {\"x\":1}\n", buf.String())

	err := printEvent(&buf, events.Event{Name: events.BatteryState, Data: []byte("{")})
	assert.ErrorContains(t, err, "failed to decode")
}
