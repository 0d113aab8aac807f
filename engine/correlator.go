package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/logging"
	"github.com/hupe1980/swm/message"
)

// pendingRequest is an outbound request awaiting its terminal response.
// generation invalidates timers armed before the latest non-terminal
// response.
type pendingRequest struct {
	messageType string
	handler     core.ResponseHandler
	timer       *time.Timer
	generation  uint64
}

// correlator tracks outbound requests until a terminal response, a timeout
// or teardown resolves them. At most one pending entry exists per message id.
type correlator struct {
	transport core.Transport
	tracer    core.Tracer
	logger    logging.Logger
	handle    string
	timeout   time.Duration
	newID     func() string

	mu      sync.Mutex
	pending map[string]*pendingRequest
	closed  bool
}

func newCorrelator(cfg Config, transport core.Transport, tracer core.Tracer, logger logging.Logger) *correlator {
	handle := cfg.MessagingHandle
	if handle == "" {
		handle = core.DefaultMessagingHandle
	}
	return &correlator{
		transport: transport,
		tracer:    tracer,
		logger:    logger,
		handle:    handle,
		timeout:   cfg.RequestTimeout,
		newID:     uuid.NewString,
		pending:   make(map[string]*pendingRequest),
	}
}

// send records a pending request and delivers it. It returns as soon as the
// transport accepted the text.
func (c *correlator) send(messageType string, payload any, handler core.ResponseHandler) (string, error) {
	if messageType == "" {
		return "", errors.New("send: empty message type")
	}
	if handler == nil {
		handler = func(core.Response) {}
	}
	raw, err := message.MarshalPayload(payload)
	if err != nil {
		return "", fmt.Errorf("send %s: %w", messageType, err)
	}

	id := c.newID()
	text, err := message.EncodeRequest(core.Envelope{
		MessageID:       id,
		MessagingHandle: c.handle,
		MessageType:     messageType,
		Payload:         raw,
	})
	if err != nil {
		return "", fmt.Errorf("send %s: %w", messageType, err)
	}

	p := &pendingRequest{messageType: messageType, handler: handler}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", core.ErrClosed
	}
	if c.transport == nil {
		c.mu.Unlock()
		return "", core.ErrTransportUnavailable
	}
	c.pending[id] = p
	c.armLocked(id, p)
	c.mu.Unlock()

	c.tracer.MessageSent(messageType, id, text)
	if err := c.transport.Deliver(text); err != nil {
		c.forget(id, p)
		return "", fmt.Errorf("deliver %s: %w", messageType, err)
	}
	return id, nil
}

// armLocked starts the deadline for p; caller must hold mu.
func (c *correlator) armLocked(id string, p *pendingRequest) {
	if c.timeout <= 0 {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.generation++
	gen := p.generation
	p.timer = time.AfterFunc(c.timeout, func() { c.expire(id, p, gen) })
}

// complete hands resp to the matching pending request. It reports false when
// no request is waiting for resp.ResponseToMessageID.
func (c *correlator) complete(resp core.ResponseEnvelope) bool {
	id := resp.ResponseToMessageID
	final := !resp.AdditionalResponsesExpected

	c.mu.Lock()
	p, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	if final {
		delete(c.pending, id)
		if p.timer != nil {
			p.timer.Stop()
		}
	} else {
		c.armLocked(id, p)
	}
	c.mu.Unlock()

	c.invoke(p, core.Response{MessageID: id, Payload: resp.Payload, Final: final})
	return true
}

func (c *correlator) expire(id string, p *pendingRequest, gen uint64) {
	c.mu.Lock()
	cur, ok := c.pending[id]
	if !ok || cur != p || p.generation != gen {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	c.mu.Unlock()

	c.logger.Warn("Outbound request timed out", "message_id", id, "message_type", p.messageType, "timeout", c.timeout)
	c.invoke(p, core.Response{MessageID: id, Final: true, Err: core.ErrRequestTimeout})
}

// forget drops p without notifying its handler.
func (c *correlator) forget(id string, p *pendingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.pending[id]; ok && cur == p {
		delete(c.pending, id)
		if p.timer != nil {
			p.timer.Stop()
		}
	}
}

// call sends a request and blocks until its terminal response or ctx is done.
func (c *correlator) call(ctx context.Context, messageType string, payload any) (core.Response, error) {
	done := make(chan core.Response, 1)
	id, err := c.send(messageType, payload, func(r core.Response) {
		if r.Final {
			done <- r
		}
	})
	if err != nil {
		return core.Response{}, err
	}

	select {
	case r := <-done:
		return r, r.Err
	case <-ctx.Done():
		c.mu.Lock()
		p := c.pending[id]
		c.mu.Unlock()
		if p != nil {
			c.forget(id, p)
		}
		return core.Response{MessageID: id}, ctx.Err()
	}
}

// pendingIDs returns the ids still awaiting a terminal response.
func (c *correlator) pendingIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// close rejects further sends and resolves every pending request with
// core.ErrClosed, in message id order.
func (c *correlator) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	drained := c.pending
	c.pending = make(map[string]*pendingRequest)
	for _, p := range drained {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
	c.mu.Unlock()

	ids := make([]string, 0, len(drained))
	for id := range drained {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c.invoke(drained[id], core.Response{MessageID: id, Final: true, Err: core.ErrClosed})
	}
}

// invoke runs a response handler, containing any panic so that timer
// goroutines and teardown keep going.
func (c *correlator) invoke(p *pendingRequest, r core.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Response handler panicked", "message_id", r.MessageID, "message_type", p.messageType, "error", fmt.Sprint(rec))
		}
	}()
	p.handler(r)
}
