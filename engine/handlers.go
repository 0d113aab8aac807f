package engine

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/message"
)

// UnknownMessageTypeError is returned for request envelopes with no
// built-in handler.
type UnknownMessageTypeError struct {
	MessageType string
}

func (e *UnknownMessageTypeError) Error() string {
	return "Unknown messageType: " + e.MessageType
}

// dispatch routes a request envelope to its built-in handler and returns the
// response payload.
func (e *Engine[R]) dispatch(req *core.Envelope) (any, error) {
	switch req.MessageType {
	case core.MessageTypeHandshake:
		return e.handleHandshake()
	case core.MessageTypeScratchpadCreate:
		return e.handleScratchpadCreate(req.Payload)
	case core.MessageTypeScratchpadUpdate:
		return e.handleScratchpadUpdate(req.Payload)
	case core.MessageTypeScratchpadDelete:
		return e.handleScratchpadDelete(req.Payload)
	case core.MessageTypeScratchpadRead:
		return e.handleScratchpadRead(req.Payload)
	case core.MessageTypeFormSubmitted:
		return e.handleFormSubmitted(req.Payload)
	case core.MessageTypeUIDone:
		return e.handleUIDone()
	default:
		e.logger.Warn("Unknown message type", "message_id", req.MessageID, "message_type", req.MessageType)
		return nil, &UnknownMessageTypeError{MessageType: req.MessageType}
	}
}

func (e *Engine[R]) handleHandshake() (any, error) {
	e.tracer.HandshakeReceived()
	e.listeners.Notify(core.HandshakeReceived{})
	return message.Ack{}, nil
}

func (e *Engine[R]) handleScratchpadCreate(raw json.RawMessage) (any, error) {
	var p message.ScratchpadCreate
	if err := message.DecodePayload(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid scratchpad.create payload: %w", err)
	}
	r, err := e.decodeResource(p.Resource, core.ErrMissingResource)
	if err != nil {
		return nil, err
	}
	entry, err := e.scratchpad.Create(r)
	if err != nil {
		return nil, fmt.Errorf("scratchpad.create failed: %w", err)
	}
	e.listeners.Notify(core.ResourceChanged[R]{Location: entry.Location, Resource: entry.Resource})
	return message.ScratchpadCreateResponse{Status: message.StatusCreated, Location: entry.Location}, nil
}

func (e *Engine[R]) handleScratchpadUpdate(raw json.RawMessage) (any, error) {
	var p message.ScratchpadUpdate
	if err := message.DecodePayload(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid scratchpad.update payload: %w", err)
	}
	r, err := e.decodeResource(p.Resource, core.ErrMissingResource)
	if err != nil {
		return nil, err
	}
	entry, err := e.scratchpad.Update(r)
	if err != nil {
		return nil, fmt.Errorf("scratchpad.update failed: %w", err)
	}
	e.listeners.Notify(core.ResourceChanged[R]{Location: entry.Location, Resource: entry.Resource})
	return message.ScratchpadUpdateResponse{Status: message.StatusOK}, nil
}

func (e *Engine[R]) handleScratchpadDelete(raw json.RawMessage) (any, error) {
	var p message.ScratchpadDelete
	if err := message.DecodePayload(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid scratchpad.delete payload: %w", err)
	}
	if p.Location == nil || *p.Location == "" {
		return nil, core.ErrMissingLocation
	}
	if !e.scratchpad.Delete(*p.Location) {
		e.logger.Debug("Delete of absent scratchpad location", "location", *p.Location)
	}
	return message.ScratchpadDeleteResponse{Status: message.StatusOK}, nil
}

func (e *Engine[R]) handleScratchpadRead(raw json.RawMessage) (any, error) {
	var p message.ScratchpadRead
	if err := message.DecodePayload(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid scratchpad.read payload: %w", err)
	}

	if p.Location != nil && *p.Location != "" {
		r, ok := e.scratchpad.Get(*p.Location)
		if !ok {
			return message.ScratchpadReadResponse{}, nil
		}
		b, err := e.codec.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("scratchpad.read failed: %w", err)
		}
		return message.ScratchpadReadResponse{Resource: b}, nil
	}

	entries := e.scratchpad.All()
	resources := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		b, err := e.codec.Marshal(entry.Resource)
		if err != nil {
			return nil, fmt.Errorf("scratchpad.read failed for %s: %w", entry.Location, err)
		}
		resources = append(resources, b)
	}
	return message.ScratchpadReadResponse{Scratchpad: &resources}, nil
}

func (e *Engine[R]) handleFormSubmitted(raw json.RawMessage) (any, error) {
	var p message.FormSubmittedPayload
	if err := message.DecodePayload(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid form.submitted payload: %w", err)
	}
	r, err := e.decodeResource(p.Response, core.ErrMissingResponse)
	if err != nil {
		return nil, err
	}
	e.tracer.FormSubmitted()
	e.listeners.Notify(core.FormSubmitted[R]{Response: r})
	return message.Ack{}, nil
}

func (e *Engine[R]) handleUIDone() (any, error) {
	e.state.Store(int32(core.StateClosed))
	e.listeners.Notify(core.CloseApplication{})
	return message.Ack{}, nil
}

// decodeResource decodes a resource field, returning missing when it is
// absent or null.
func (e *Engine[R]) decodeResource(raw json.RawMessage, missing error) (R, error) {
	var zero R
	if message.IsNull(raw) {
		return zero, missing
	}
	r, err := e.codec.Unmarshal(raw)
	if err != nil {
		return zero, err
	}
	return r, nil
}
