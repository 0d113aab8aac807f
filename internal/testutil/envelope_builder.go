package testutil

import (
	"encoding/json"

	"github.com/hupe1980/swm/core"
)

// EnvelopeBuilder provides a fluent helper for constructing inbound request
// text in tests.
// Example:
//
//	text := NewEnvelopeBuilder("scratchpad.read").ID("msg-1").Location("Observation/1").Build()
//
// Chain only the parts you need; the messaging handle defaults to
// core.DefaultMessagingHandle and the payload to {}.
type EnvelopeBuilder struct {
	id          string
	handle      string
	messageType string
	payload     map[string]any
}

// NewEnvelopeBuilder creates a builder for a request of the given type with id "msg-1".
func NewEnvelopeBuilder(messageType string) *EnvelopeBuilder {
	return &EnvelopeBuilder{id: "msg-1", handle: core.DefaultMessagingHandle, messageType: messageType, payload: map[string]any{}}
}

// ID sets the messageId (chainable).
func (b *EnvelopeBuilder) ID(id string) *EnvelopeBuilder { b.id = id; return b }

// Handle sets the messagingHandle (chainable).
func (b *EnvelopeBuilder) Handle(h string) *EnvelopeBuilder { b.handle = h; return b }

// Field sets an arbitrary payload field (chainable). A nil value encodes as null.
func (b *EnvelopeBuilder) Field(key string, value any) *EnvelopeBuilder {
	b.payload[key] = value
	return b
}

// Resource sets payload.resource from a JSON document (chainable).
func (b *EnvelopeBuilder) Resource(doc string) *EnvelopeBuilder {
	return b.Field("resource", json.RawMessage(doc))
}

// Response sets payload.response from a JSON document (chainable).
func (b *EnvelopeBuilder) Response(doc string) *EnvelopeBuilder {
	return b.Field("response", json.RawMessage(doc))
}

// Location sets payload.location (chainable).
func (b *EnvelopeBuilder) Location(loc string) *EnvelopeBuilder { return b.Field("location", loc) }

// Build returns the encoded envelope.
func (b *EnvelopeBuilder) Build() string {
	payload, err := json.Marshal(b.payload)
	if err != nil {
		panic(err)
	}
	out, err := json.Marshal(core.Envelope{
		MessageID:       b.id,
		MessagingHandle: b.handle,
		MessageType:     b.messageType,
		Payload:         payload,
	})
	if err != nil {
		panic(err)
	}
	return string(out)
}

// ResponseText encodes a response envelope answering messageID.
func ResponseText(messageID string, more bool, payload string) string {
	out, err := json.Marshal(core.ResponseEnvelope{
		ResponseToMessageID:         messageID,
		AdditionalResponsesExpected: more,
		Payload:                     json.RawMessage(payload),
	})
	if err != nil {
		panic(err)
	}
	return string(out)
}
