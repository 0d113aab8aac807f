package core

// SessionState is the lifecycle position of a messaging session.
//
//	Idle -> AwaitingHandshake -> Active -> Closed
//
// Idle moves to AwaitingHandshake when the host sends before hearing from the
// guest, and to Active on the first successfully decoded inbound envelope.
// ui.done or engine teardown moves to Closed.
type SessionState int32

const (
	StateIdle SessionState = iota
	StateAwaitingHandshake
	StateActive
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingHandshake:
		return "awaiting_handshake"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
