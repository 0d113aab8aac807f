package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/logging"
	"github.com/hupe1980/swm/message"
	"github.com/hupe1980/swm/scratchpad"
	"github.com/hupe1980/swm/tracing"
)

// Config defines tuning parameters for the Engine.
type Config struct {
	// MessagingHandle is stamped on every outbound request envelope.
	MessagingHandle string

	// RequestTimeout bounds how long an outbound request waits for its
	// terminal response. Each non-terminal response re-arms the deadline.
	// Zero disables timeouts; pending requests are then resolved only by a
	// response or by Close.
	RequestTimeout time.Duration
}

// DefaultConfig provides default configuration values.
var DefaultConfig = Config{
	MessagingHandle: core.DefaultMessagingHandle,
	RequestTimeout:  30 * time.Second,
}

// Options configures an Engine using the functional options pattern. Every
// collaborator has a default so New works without any option.
type Options[R any] struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Scratchpad stores staged resources. Defaults to an in-memory store.
	Scratchpad core.ScratchpadStore[R]

	// Transport carries outbound requests to the guest. Without a transport
	// SendAsync fails with core.ErrTransportUnavailable; inbound handling
	// still works.
	Transport core.Transport

	// Tracer receives lifecycle trace hooks. Defaults to tracing.NoOp.
	Tracer core.Tracer

	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Engine is the SMART Web Messaging protocol engine for resources of type R.
// All methods are safe for concurrent use.
type Engine[R any] struct {
	codec      core.ResourceCodec[R]
	scratchpad core.ScratchpadStore[R]
	listeners  *Registry[R]
	correlator *correlator
	tracer     core.Tracer
	logger     logging.Logger

	state     atomic.Int32
	closeOnce sync.Once
}

// New creates an Engine that interprets resources with codec.
func New[R any](codec core.ResourceCodec[R], optFns ...func(o *Options[R])) *Engine[R] {
	opts := Options[R]{
		Config: DefaultConfig,
		Tracer: tracing.NoOp{},
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Scratchpad == nil {
		opts.Scratchpad = scratchpad.NewInMemoryStore(codec)
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.NoOp{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Engine[R]{
		codec:      codec,
		scratchpad: opts.Scratchpad,
		listeners:  NewRegistry[R](opts.Logger),
		correlator: newCorrelator(opts.Config, opts.Transport, opts.Tracer, opts.Logger),
		tracer:     opts.Tracer,
		logger:     opts.Logger,
	}
}

// AddListener registers l for lifecycle events.
func (e *Engine[R]) AddListener(l *core.Listener[R]) { e.listeners.Add(l) }

// RemoveListener unregisters the earliest registration of l.
func (e *Engine[R]) RemoveListener(l *core.Listener[R]) bool { return e.listeners.Remove(l) }

// Scratchpad returns the store backing scratchpad.* messages.
func (e *Engine[R]) Scratchpad() core.ScratchpadStore[R] { return e.scratchpad }

// State returns the current session state.
func (e *Engine[R]) State() core.SessionState { return core.SessionState(e.state.Load()) }

// HandleMessage processes one inbound document and returns the encoded reply.
//
// A request always yields a well-formed response envelope, including for
// malformed input, validation failures and unknown message types. A
// response to an earlier SendAsync yields "" because nothing goes back
// across the wire. A request that also carries a responseToMessageId no
// outbound request is waiting for is handled as a request.
func (e *Engine[R]) HandleMessage(text string) (reply string) {
	start := time.Now()
	messageID := ""
	messageType := ""

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic while handling message: %v", rec)
			if sl, ok := e.logger.(stackLogger); ok {
				sl.ErrorWithStack(err, "Recovered from panic in message handler", "message_id", messageID, "message_type", messageType)
			} else {
				e.logger.Error("Recovered from panic in message handler", "message_id", messageID, "message_type", messageType, "error", err)
			}
			reply = e.encode(message.ErrorResponse(messageID, "Internal error while handling "+describe(messageType)))
		}
	}()

	in, err := message.Decode(text)
	if err != nil {
		var decodeErr *message.DecodeError
		if errors.As(err, &decodeErr) {
			messageID = decodeErr.MessageID
		}
		e.tracer.MessageReceived("", messageID, text)
		e.logMessage(messageType, messageID, time.Since(start), err)
		return e.encode(message.ErrorResponse(messageID, "Failed to parse message: "+err.Error()))
	}

	e.activate()

	if in.IsResponse() {
		responseTo := in.Response.ResponseToMessageID
		if e.correlator.complete(*in.Response) {
			e.tracer.MessageReceived("", responseTo, text)
			return ""
		}
		if !in.IsRequest() {
			e.tracer.MessageReceived("", responseTo, text)
			e.logger.Debug("Dropping response with no pending request", "response_to_message_id", responseTo)
			return ""
		}
		e.logger.Debug("Handling request with an uncorrelated responseToMessageId", "response_to_message_id", responseTo)
	}

	req := in.Request
	messageID, messageType = req.MessageID, req.MessageType
	e.tracer.MessageReceived(messageType, messageID, text)
	if e.State() == core.StateClosed {
		e.logger.Warn("Message received after session closed", "message_id", messageID, "message_type", messageType)
	}

	payload, err := e.dispatch(req)
	e.logMessage(messageType, messageID, time.Since(start), err)
	if err != nil {
		return e.encode(message.ErrorResponse(messageID, err.Error()))
	}

	resp, err := message.NewResponse(messageID, payload)
	if err != nil {
		e.logger.Error("Failed to encode response payload", "message_id", messageID, "message_type", messageType, "error", err)
		return e.encode(message.ErrorResponse(messageID, "Failed to encode response"))
	}
	return e.encode(resp)
}

// SendAsync sends a request to the guest and returns its message id without
// waiting for a reply. handler runs once per response; the last call has
// Final set, and carries Err when the request timed out or the engine was
// closed.
func (e *Engine[R]) SendAsync(messageType string, payload any, handler core.ResponseHandler) (string, error) {
	e.state.CompareAndSwap(int32(core.StateIdle), int32(core.StateAwaitingHandshake))
	return e.correlator.send(messageType, payload, handler)
}

// Call sends a request and blocks until its terminal response, a timeout, or
// ctx is done. Non-terminal responses are skipped.
func (e *Engine[R]) Call(ctx context.Context, messageType string, payload any) (core.Response, error) {
	e.state.CompareAndSwap(int32(core.StateIdle), int32(core.StateAwaitingHandshake))
	return e.correlator.call(ctx, messageType, payload)
}

// Pending returns the message ids of outbound requests still awaiting a
// terminal response.
func (e *Engine[R]) Pending() []string { return e.correlator.pendingIDs() }

// Close tears the engine down: further SendAsync calls fail with
// core.ErrClosed and every pending request is resolved with core.ErrClosed.
// Inbound messages are still handled. Close is idempotent.
func (e *Engine[R]) Close() {
	e.closeOnce.Do(func() {
		e.state.Store(int32(core.StateClosed))
		e.correlator.close()
		e.tracer.FinishSession()
		e.logger.Debug("Engine closed")
	})
}

// activate moves Idle and AwaitingHandshake sessions to Active.
func (e *Engine[R]) activate() {
	for {
		cur := e.state.Load()
		if cur != int32(core.StateIdle) && cur != int32(core.StateAwaitingHandshake) {
			return
		}
		if e.state.CompareAndSwap(cur, int32(core.StateActive)) {
			return
		}
	}
}

func (e *Engine[R]) encode(resp core.ResponseEnvelope) string {
	text, err := message.Encode(resp)
	if err != nil {
		e.logger.Error("Failed to encode response envelope", "response_to_message_id", resp.ResponseToMessageID, "error", err)
		text, _ = message.Encode(message.ErrorResponse(resp.ResponseToMessageID, "Failed to encode response"))
	}
	return text
}

func (e *Engine[R]) logMessage(messageType, messageID string, dur time.Duration, err error) {
	if ml, ok := e.logger.(messageLogger); ok {
		ml.LogMessage("inbound", messageType, messageID, dur, err)
		return
	}
	if err != nil {
		e.logger.Warn("Message handling failed", "message_id", messageID, "message_type", messageType, "error", err)
	}
}

func describe(messageType string) string {
	if messageType == "" {
		return "message"
	}
	return messageType
}

// messageLogger is implemented by loggers that record per-envelope outcomes,
// such as *logging.MessagingLogger.
type messageLogger interface {
	LogMessage(direction, messageType, messageID string, dur time.Duration, err error)
}

// stackLogger is implemented by loggers that can attach a stack trace.
type stackLogger interface {
	ErrorWithStack(err error, msg string, args ...any)
}
