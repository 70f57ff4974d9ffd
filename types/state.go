package types

// State represents the poller lifecycle state.
//
// States follow a fixed cycle during normal operation:
//
//	StateIdle → StatePolling → StateDraining → StatePolling → ...
//
// Transport or parse failures detour through StateBackoff before polling again.
// StateStopped is terminal.
type State int

const (
	// StateIdle is the initial state before Start.
	StateIdle State = iota

	// StatePolling indicates a poll request is in flight.
	StatePolling

	// StateDraining indicates messages of the last response are being handed out.
	StateDraining

	// StateBackoff indicates the poller is waiting before retrying a failed poll.
	StateBackoff

	// StateStopped indicates the poller has shut down.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePolling:
		return "Polling"
	case StateDraining:
		return "Draining"
	case StateBackoff:
		return "Backoff"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
