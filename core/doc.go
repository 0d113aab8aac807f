// Package core provides the foundational domain types and contracts used by
// the SMART Web Messaging engine. It defines:
//
//   - Envelopes (inbound requests and correlated responses on the wire)
//   - Lifecycle events (a closed set) and the Listener that observes them
//   - The ResourceCodec capability the engine is parameterized over
//   - The ScratchpadStore contract for staged resources
//   - Collaborators the engine consumes: Transport and Tracer
//
// The package keeps implementation concerns (codecs, storage, dispatch) out
// of scope, exposing small interfaces so hosts can plug in their own
// transports, tracers and FHIR version adapters.
package core
