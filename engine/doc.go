// Package engine implements the SMART Web Messaging protocol engine.
//
// The Engine is the single entry point a host wires between its transport
// and its application code. It is made of four cooperating parts:
//
//   - Dispatcher: HandleMessage decodes an inbound envelope and routes it by
//     message type to a built-in handler (handshake, scratchpad CRUD,
//     form.submitted, ui.done), or to the correlator when the envelope
//     answers an outbound request.
//   - Correlator: SendAsync records a pending request, hands the envelope to
//     the transport and returns at once. Matching responses invoke the
//     request's handler; timeouts and teardown resolve it with a terminal
//     error.
//   - Registry: an ordered list of listeners notified synchronously of
//     lifecycle events. A panicking listener is logged and skipped.
//   - Scratchpad: the staging store for resources the guest creates.
//
// # Usage
//
//	eng := engine.New[*r4.Resource](r4.Codec{}, func(o *engine.Options[*r4.Resource]) {
//	    o.Transport = bridge
//	    o.Logger = logger
//	})
//	eng.AddListener(&core.Listener[*r4.Resource]{
//	    OnFormSubmitted: func(ev core.FormSubmitted[*r4.Resource]) { save(ev.Response) },
//	})
//	reply := eng.HandleMessage(text) // "" when text answered an outbound request
//
// # Concurrency Model
//
// The engine owns no goroutines apart from request timers. HandleMessage,
// SendAsync and the listener methods are safe to call concurrently. No lock
// is held while a listener or a response handler runs, so both may call
// back into the engine.
//
// # Error Handling
//
// HandleMessage never panics and never returns an error: decode failures,
// validation failures and unknown message types all become a response
// envelope whose payload is {"errorMessage": ...}, correlated to the
// inbound messageId when one could be recovered.
package engine
