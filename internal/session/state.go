// ABOUTME: Session state machine states
// ABOUTME: Names the lifecycle steps from idle through listening to closed
package session

// State is a step in the session lifecycle
type State int

const (
	StateIdle State = iota
	StateDeviceReady
	StateDecoderReady
	StateListening
	StateExtracted
	StateAborted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeviceReady:
		return "device-ready"
	case StateDecoderReady:
		return "decoder-ready"
	case StateListening:
		return "listening"
	case StateExtracted:
		return "extracted"
	case StateAborted:
		return "aborted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the read loop has ended
func (s State) Terminal() bool {
	return s == StateExtracted || s == StateAborted || s == StateClosed
}
