package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/swm/core"
	"github.com/tidwall/gjson"
)

// DecodeError reports an inbound document that is not a well-formed
// envelope. MessageID is the id salvaged from the raw text, if any.
type DecodeError struct {
	MessageID string
	Reason    string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Inbound is a decoded inbound document. At least one of Request and
// Response is set. Both are set when a well-formed request also carries a
// responseToMessageId; the engine tries correlation first and falls back to
// handling the request.
type Inbound struct {
	Request  *core.Envelope
	Response *core.ResponseEnvelope
}

// IsResponse reports whether the document may answer an earlier outbound
// request.
func (in Inbound) IsResponse() bool { return in.Response != nil }

// IsRequest reports whether the document can be routed by messageType.
func (in Inbound) IsRequest() bool { return in.Request != nil }

// MessageID returns the top-level messageId of text, tolerating documents
// that fail to parse past that field. It returns "" when no string id is
// recoverable.
func MessageID(text string) string {
	res := gjson.Get(text, "messageId")
	if res.Type != gjson.String {
		return ""
	}
	return res.Str
}

// Decode parses an inbound document. A document with a non-null
// responseToMessageId is a response envelope. When it also carries
// messageId and messageType it decodes as a request too, so it can still be
// answered if no outbound request is waiting for it. Everything else must be
// a request envelope with a non-empty messageId and messageType.
func Decode(text string) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Inbound{}, &DecodeError{MessageID: MessageID(text), Reason: "malformed message", Err: plainJSONError(err)}
	}
	if fields == nil {
		return Inbound{}, &DecodeError{Reason: "malformed message", Err: errors.New("message is not a JSON object")}
	}

	raw, ok := fields["responseToMessageId"]
	if !ok || IsNull(raw) {
		return decodeRequest(text, fields)
	}

	resp, respErr := decodeResponse(text)
	if !hasRequestFields(fields) {
		return resp, respErr
	}
	req, reqErr := decodeRequest(text, fields)
	if reqErr != nil {
		if respErr != nil {
			return Inbound{}, reqErr
		}
		return resp, nil
	}
	req.Response = resp.Response
	return req, nil
}

// hasRequestFields reports whether fields name both messageId and messageType.
func hasRequestFields(fields map[string]json.RawMessage) bool {
	_, hasID := fields["messageId"]
	_, hasType := fields["messageType"]
	return hasID && hasType
}

func decodeRequest(text string, fields map[string]json.RawMessage) (Inbound, error) {
	var env core.Envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return Inbound{}, &DecodeError{MessageID: MessageID(text), Reason: "invalid envelope", Err: plainJSONError(err)}
	}
	if env.MessageID == "" {
		return Inbound{}, &DecodeError{Reason: "invalid envelope", Err: errors.New("missing messageId")}
	}
	if env.MessageType == "" {
		return Inbound{}, &DecodeError{MessageID: env.MessageID, Reason: "invalid envelope", Err: errors.New("missing messageType")}
	}
	if _, ok := fields["payload"]; !ok || IsNull(env.Payload) {
		env.Payload = json.RawMessage("{}")
	} else if !isObject(env.Payload) {
		return Inbound{}, &DecodeError{MessageID: env.MessageID, Reason: "invalid envelope", Err: errors.New("payload must be a JSON object")}
	}
	return Inbound{Request: &env}, nil
}

func decodeResponse(text string) (Inbound, error) {
	var resp core.ResponseEnvelope
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return Inbound{}, &DecodeError{MessageID: MessageID(text), Reason: "invalid response envelope", Err: plainJSONError(err)}
	}
	if resp.ResponseToMessageID == "" {
		return Inbound{}, &DecodeError{MessageID: MessageID(text), Reason: "invalid response envelope", Err: errors.New("missing responseToMessageId")}
	}
	if IsNull(resp.Payload) {
		resp.Payload = json.RawMessage("{}")
	}
	return Inbound{Response: &resp}, nil
}

// Encode serializes a response envelope. responseToMessageId and
// additionalResponsesExpected are always present.
func Encode(resp core.ResponseEnvelope) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return string(b), nil
}

// EncodeRequest serializes an outbound request envelope.
func EncodeRequest(env core.Envelope) (string, error) {
	if IsNull(env.Payload) {
		env.Payload = json.RawMessage("{}")
	}
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	return string(b), nil
}

// NewResponse builds a terminal response to messageID carrying payload.
func NewResponse(messageID string, payload any) (core.ResponseEnvelope, error) {
	raw, err := MarshalPayload(payload)
	if err != nil {
		return core.ResponseEnvelope{}, err
	}
	return core.ResponseEnvelope{ResponseToMessageID: messageID, Payload: raw}, nil
}

// ErrorResponse builds a terminal response carrying {errorMessage}.
func ErrorResponse(messageID, errorMessage string) core.ResponseEnvelope {
	b, err := json.Marshal(ErrorPayload{ErrorMessage: errorMessage})
	if err != nil {
		b = []byte(`{"errorMessage":"internal error"}`)
	}
	return core.ResponseEnvelope{ResponseToMessageID: messageID, Payload: b}
}

// MarshalPayload encodes a payload value, passing json.RawMessage through.
func MarshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if IsNull(p) {
			return json.RawMessage("{}"), nil
		}
		if !isObject(p) {
			return nil, errors.New("encode payload: payload must be a JSON object")
		}
		return p, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	if !isObject(b) {
		return nil, errors.New("encode payload: payload must be a JSON object")
	}
	return b, nil
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// plainJSONError strips Go type names from unmarshal errors so only a
// human-readable description crosses the wire.
func plainJSONError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			return fmt.Errorf("field %q has the wrong type (got %s)", typeErr.Field, typeErr.Value)
		}
		return fmt.Errorf("unexpected %s", typeErr.Value)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("invalid JSON at offset %d", syntaxErr.Offset)
	}
	return errors.New("invalid JSON")
}

// DecodePayload unmarshals a request payload into v, reporting failures
// without Go type names.
func DecodePayload(raw json.RawMessage, v any) error {
	if IsNull(raw) {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return plainJSONError(err)
	}
	return nil
}
