package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish(t *testing.T) {
	h := NewEventHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish(BatteryState, BatteryStateEvent{Index: 1, From: "charging", To: "full"})

	for _, ch := range []chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, BatteryState, ev.Name)
		_, err := uuid.Parse(ev.ID)
		assert.NoError(t, err)

		p, err := DecodeAs[BatteryStateEvent](ev)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Index)
		assert.Equal(t, "full", p.To)
	}

	h.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Subscribers())
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()

	for i := 0; i < 20; i++ {
		h.Publish(BatteryAdded, BatteryPresenceEvent{Index: i})
	}
	assert.Len(t, ch, 16)

	var nilHub *EventHub
	nilHub.Publish(BatteryAdded, nil)
}

func TestDecodeAs(t *testing.T) {
	p, err := DecodeAs[BatteryStateEvent](Event{})
	require.NoError(t, err)
	assert.Zero(t, p)

	_, err = DecodeAs[BatteryStateEvent](Event{Data: []byte("{")})
	assert.Error(t, err)
}
