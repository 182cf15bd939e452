package daemon

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/config"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
	"github.com/charlie0129/battinfo/pkg/version"
)

func (d *Daemon) getBatteries(c *gin.Context) {
	bats, err := d.snapshot()
	if err != nil {
		logrus.Errorf("getBatteries failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, bats)
}

func (d *Daemon) getBattery(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		err := fmt.Errorf("battery index must be a non-negative integer, got %q", c.Param("index"))
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	bats, err := d.snapshot()
	if err != nil {
		logrus.Errorf("getBattery failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if idx >= len(bats) {
		c.IndentedJSON(http.StatusNotFound, fmt.Sprintf("no battery at index %d", idx))
		return
	}

	c.IndentedJSON(http.StatusOK, bats[idx])
}

// getEvents streams hub events as server-sent events until the client
// goes away.
func (d *Daemon) getEvents(c *gin.Context) {
	ch := d.hub.Subscribe()
	defer d.hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	// Let the client know the stream is open before the first event.
	c.Render(-1, sse.Event{Event: "ready", Data: "ok"})
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Id: ev.ID, Event: ev.Name, Data: ev.Data})
			return true
		}
	})
}

// Status is the daemon health reported by GET /status.
type Status struct {
	LastPoll     time.Time `json:"lastPoll"`
	RecentPolls  int       `json:"recentPolls"`
	PollInterval string    `json:"pollInterval"`
	Batteries    int       `json:"batteries"`
	Subscribers  int       `json:"subscribers"`
	LastError    string    `json:"lastError,omitempty"`
}

func (d *Daemon) getStatus(c *gin.Context) {
	interval := d.conf.PollInterval()

	d.mu.RLock()
	st := Status{
		LastPoll:     d.recorder.GetLastRecord(),
		RecentPolls:  d.recorder.GetRecordsIn(time.Minute, interval),
		PollInterval: interval.String(),
		Batteries:    len(d.batteries),
		Subscribers:  d.hub.Subscribers(),
	}
	if d.lastErr != nil {
		st.LastError = d.lastErr.Error()
	}
	d.mu.RUnlock()

	c.IndentedJSON(http.StatusOK, st)
}

func (d *Daemon) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(d.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"version": version.Version,
		"commit":  version.GitCommit,
	})
}

// snapshot returns the latest batteries, polling once if the loop has not
// run yet.
func (d *Daemon) snapshot() ([]*powerinfo.Battery, error) {
	d.ensurePolled()

	d.mu.RLock()
	bats, lastErr := d.batteries, d.lastErr
	d.mu.RUnlock()

	if bats == nil && lastErr != nil {
		return nil, lastErr
	}
	if bats == nil {
		return nil, errors.New("no battery data")
	}

	return bats, nil
}
