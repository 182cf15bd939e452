package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/events"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

// PollRecorder records the times of the last N successful polls.
type PollRecorder struct {
	MaxRecordCount int
	LastPollTimes  []time.Time
	mu             *sync.Mutex
}

// NewPollRecorder returns a new PollRecorder.
func NewPollRecorder(maxRecordCount int) *PollRecorder {
	return &PollRecorder{
		MaxRecordCount: maxRecordCount,
		LastPollTimes:  make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecord adds a new record.
func (r *PollRecorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading, it stops while the system sleeps.
	t = t.Round(0)

	if len(r.LastPollTimes) >= r.MaxRecordCount {
		r.LastPollTimes = r.LastPollTimes[1:]
	}
	r.LastPollTimes = append(r.LastPollTimes, t)
}

// GetRecordsIn returns the number of continuous records in the last
// duration. Two records are continuous when they are less than interval
// plus one second apart.
func (r *PollRecorder) GetRecordsIn(last, interval time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	gap := interval + time.Second

	// The last record must be recent.
	if len(r.LastPollTimes) > 0 && time.Since(r.LastPollTimes[len(r.LastPollTimes)-1]) >= gap {
		return 0
	}

	count := 0
	for i := len(r.LastPollTimes) - 1; i >= 0; i-- {
		record := r.LastPollTimes[i]
		if time.Since(record) > last {
			break
		}
		if i+1 < len(r.LastPollTimes) && r.LastPollTimes[i+1].Sub(record) >= gap {
			break
		}
		count++
	}

	return count
}

// GetLastRecord returns the last record, or the zero time.
func (r *PollRecorder) GetLastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastPollTimes) == 0 {
		return time.Time{}
	}

	return r.LastPollTimes[len(r.LastPollTimes)-1]
}

// pollLoop polls until ctx is done. The interval is read from the config
// every round so a reload takes effect.
func (d *Daemon) pollLoop(ctx context.Context) {
	for {
		d.poll()

		select {
		case <-ctx.Done():
			logrus.Debugln("poll loop stopped")
			return
		case <-time.After(d.conf.PollInterval()):
		}
	}
}

// poll reads every battery and publishes the differences to the last poll.
// Devices that fail to read are left out of this round.
func (d *Daemon) poll() {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()

	d.pollLocked()
}

// ensurePolled polls unless a poll has already succeeded. It waits for a
// poll in progress instead of starting another one.
func (d *Daemon) ensurePolled() {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()

	if d.recorder.GetLastRecord().IsZero() {
		d.pollLocked()
	}
}

func (d *Daemon) pollLocked() {
	it, err := d.manager.Batteries()
	if err != nil {
		logrus.Errorf("failed to enumerate batteries: %v", err)
		d.mu.Lock()
		d.lastErr = err
		d.mu.Unlock()
		return
	}
	defer func() {
		if err := it.Close(); err != nil {
			logrus.Warnf("failed to close battery iterator: %v", err)
		}
	}()

	bats := make([]*powerinfo.Battery, 0)
	var lastErr error
	for {
		b, err := it.Next()
		if err != nil {
			logrus.Warnf("failed to read battery: %v", err)
			lastErr = err
			continue
		}
		if b == nil {
			break
		}
		bats = append(bats, b)
	}

	d.mu.Lock()
	prev := d.batteries
	d.batteries = bats
	d.lastErr = lastErr
	d.recorder.AddRecord(time.Now())
	d.mu.Unlock()

	d.publishChanges(prev, bats)
}

func (d *Daemon) publishChanges(prev, cur []*powerinfo.Battery) {
	ts := time.Now().Unix()

	before := make(map[string]*powerinfo.Battery, len(prev))
	for _, b := range prev {
		before[b.ID] = b
	}
	seen := make(map[string]bool, len(cur))

	for i, b := range cur {
		seen[b.ID] = true
		old, ok := before[b.ID]
		if !ok {
			// Everything is new on the first poll.
			if prev != nil {
				d.hub.Publish(events.BatteryAdded, events.BatteryPresenceEvent{Index: i, Device: b.ID, Ts: ts})
			}
			continue
		}
		if old.State == b.State {
			continue
		}

		logrus.WithFields(logrus.Fields{
			"device": b.ID,
			"from":   old.State.String(),
			"to":     b.State.String(),
		}).Info("battery state changed")
		d.hub.Publish(events.BatteryState, events.BatteryStateEvent{
			Index:      i,
			Device:     b.ID,
			From:       old.State.String(),
			To:         b.State.String(),
			Percentage: b.Percentage(),
			Ts:         ts,
		})
	}

	for i, b := range prev {
		if !seen[b.ID] {
			d.hub.Publish(events.BatteryRemoved, events.BatteryPresenceEvent{Index: i, Device: b.ID, Ts: ts})
		}
	}
}
