package events

import "encoding/json"

// Event name constants
const (
	BatteryState   = "battery.state"
	BatteryAdded   = "battery.added"
	BatteryRemoved = "battery.removed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	ID   string          // Unique event ID, a UUID
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// BatteryStateEvent is the typed payload for battery.state.
type BatteryStateEvent struct {
	Index      int     `json:"index"`
	Device     string  `json:"device"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Percentage float64 `json:"percentage"`
	Ts         int64   `json:"ts"`
}

// BatteryPresenceEvent is the typed payload for battery.added and
// battery.removed.
type BatteryPresenceEvent struct {
	Index  int    `json:"index"`
	Device string `json:"device"`
	Ts     int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.BatteryStateEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
