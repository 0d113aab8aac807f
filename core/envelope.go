package core

import "encoding/json"

// Message types understood by the engine.
const (
	MessageTypeHandshake            = "status.handshake"
	MessageTypeScratchpadCreate     = "scratchpad.create"
	MessageTypeScratchpadRead       = "scratchpad.read"
	MessageTypeScratchpadUpdate     = "scratchpad.update"
	MessageTypeScratchpadDelete     = "scratchpad.delete"
	MessageTypeFormSubmitted        = "form.submitted"
	MessageTypeUIDone               = "ui.done"
	MessageTypeConfigureContext     = "sdc.configureContext"
	MessageTypeDisplayQuestionnaire = "sdc.displayQuestionnaire"
)

// DefaultMessagingHandle is stamped on outbound requests unless the host
// configures its own handle.
const DefaultMessagingHandle = "smart-web-messaging"

// Envelope is a request crossing the channel in either direction. MessageID
// is opaque and chosen by the side that sends the request.
type Envelope struct {
	MessageID       string          `json:"messageId"`
	MessagingHandle string          `json:"messagingHandle"`
	MessageType     string          `json:"messageType"`
	Payload         json.RawMessage `json:"payload"`
}

// ResponseEnvelope answers a previously received Envelope. A response with
// AdditionalResponsesExpected set keeps the originating request open.
type ResponseEnvelope struct {
	ResponseToMessageID         string          `json:"responseToMessageId"`
	AdditionalResponsesExpected bool            `json:"additionalResponsesExpected"`
	Payload                     json.RawMessage `json:"payload,omitempty"`
}

// Response is what a ResponseHandler receives for an outbound request. Err
// is non-nil only for terminal failures (timeout, engine closed); in that
// case Payload is empty and Final is true.
type Response struct {
	MessageID string
	Payload   json.RawMessage
	Final     bool
	Err       error
}

// ResponseHandler consumes responses to an outbound request. It runs on the
// goroutine that delivered the matching inbound envelope, or on a timer
// goroutine for timeouts.
type ResponseHandler func(Response)
