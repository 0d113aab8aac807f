package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/swm/core"
)

// instrumentationName identifies spans produced by this package.
const instrumentationName = "github.com/hupe1980/swm/tracing/otel"

// Span names and attribute keys.
const (
	SpanSession           = "swm.session"
	SpanBridgeInjected    = "browser.bridge_inject"
	SpanMessageSend       = "message.send"
	SpanMessageReceive    = "message.receive"
	SpanHandshakeReceived = "handshake.received"
	SpanFormSubmitted     = "form.submitted"

	AttrTargetURL   = attribute.Key("swm.target_url")
	AttrBrowserType = attribute.Key("swm.browser_type")
	AttrMessageID   = attribute.Key("swm.message_id")
	AttrMessageType = attribute.Key("swm.message_type")
	AttrMessageJSON = attribute.Key("swm.message_json")
)

var _ core.Tracer = (*Tracer)(nil)

// Tracer records a messaging session as one root span with a short child
// span per lifecycle hook. Hooks may arrive from any goroutine; children are
// parented on the session span explicitly rather than through a context the
// caller would have to carry. Hooks outside a session are dropped.
type Tracer struct {
	tracer trace.Tracer

	mu      sync.Mutex
	ctx     context.Context
	session trace.Span
}

// NewTracer creates a Tracer on tp, or on the global provider when tp is nil.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(instrumentationName)}
}

// StartSession opens the session span, ending any session still open.
func (t *Tracer) StartSession(targetURL, browserType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.End()
	}
	t.ctx, t.session = t.tracer.Start(context.Background(), SpanSession,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			AttrTargetURL.String(targetURL),
			AttrBrowserType.String(browserType),
		),
	)
}

func (t *Tracer) BridgeInjected() { t.child(SpanBridgeInjected) }

func (t *Tracer) MessageSent(messageType, messageID, json string) {
	t.child(SpanMessageSend, AttrMessageType.String(messageType), AttrMessageID.String(messageID), AttrMessageJSON.String(json))
}

func (t *Tracer) MessageReceived(messageType, messageID, json string) {
	t.child(SpanMessageReceive, AttrMessageType.String(messageType), AttrMessageID.String(messageID), AttrMessageJSON.String(json))
}

func (t *Tracer) HandshakeReceived() { t.child(SpanHandshakeReceived) }

func (t *Tracer) FormSubmitted() { t.child(SpanFormSubmitted) }

// FinishSession ends the session span. It is a no-op without a session.
func (t *Tracer) FinishSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return
	}
	t.session.SetStatus(codes.Ok, "")
	t.session.End()
	t.ctx, t.session = nil, nil
}

func (t *Tracer) child(name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()
	if ctx == nil {
		return
	}
	_, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Ok, "")
	span.End()
}
