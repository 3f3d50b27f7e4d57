package player

// StreamState is the session lifecycle state. Exactly one state is active
// at a time and all transitions happen under the session mutex, so invalid
// combinations like paused-while-stopped cannot be represented.
type StreamState int

const (
	StateIdle StreamState = iota
	StateConnecting
	StateStreaming
	StatePaused
	StateStopping
	StateFailed
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// active reports whether a producer goroutine exists for this state.
func (s StreamState) active() bool {
	return s == StateConnecting || s == StateStreaming || s == StatePaused
}
