// Package message implements the wire codec for SMART Web Messaging
// envelopes: decoding inbound text into request or response envelopes,
// encoding response envelopes, and the payload shapes of every message type
// the engine handles.
//
// Decoding is tolerant of malformed input. When a document cannot be decoded
// the returned *DecodeError still carries whatever messageId could be
// salvaged from the raw text, so an error response can be correlated to the
// offending request.
package message
