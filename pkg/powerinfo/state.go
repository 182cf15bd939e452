package powerinfo

import "strings"

// State represents the charging state of a battery.
//
// The numeric values are exposed through the handle boundary and must
// not be reordered.
type State uint8

const (
	// Unknown means the controller reported an unknown state or the state
	// could not be read.
	Unknown State = iota
	// Charging indicates the battery is charging.
	Charging
	// Discharging indicates the battery is discharging.
	Discharging
	// Empty indicates the battery is empty.
	Empty
	// Full indicates the battery is full.
	Full
)

// ParseState parses a status string as reported by the kernel or the OS.
// Anything it does not recognize, "Not charging" included, is Unknown.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "charging":
		return Charging
	case "discharging":
		return Discharging
	case "empty":
		return Empty
	case "full":
		return Full
	default:
		return Unknown
	}
}

func (s State) String() string {
	switch s {
	case Charging:
		return "charging"
	case Discharging:
		return "discharging"
	case Empty:
		return "empty"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}
