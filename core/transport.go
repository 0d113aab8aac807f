package core

// Transport hands encoded envelopes to the guest. Deliver must not block on
// a response; replies come back through the engine's HandleMessage.
type Transport interface {
	Deliver(text string) error
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(text string) error

// Deliver calls f(text).
func (f TransportFunc) Deliver(text string) error { return f(text) }
