package core

// Tracer records session lifecycle activity for an optional observability
// backend. Implementations must be safe for concurrent use; the engine calls
// them from whichever goroutine is delivering or sending a message.
type Tracer interface {
	// StartSession opens a session-level trace for the guest at targetURL.
	StartSession(targetURL, browserType string)

	// BridgeInjected records that the messaging bridge is available to the guest.
	BridgeInjected()

	// MessageSent records an outbound request.
	MessageSent(messageType, messageID, json string)

	// MessageReceived records an inbound envelope.
	MessageReceived(messageType, messageID, json string)

	HandshakeReceived()
	FormSubmitted()

	// FinishSession closes the session-level trace.
	FinishSession()
}
