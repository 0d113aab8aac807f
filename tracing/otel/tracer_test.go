package otel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	swmotel "github.com/hupe1980/swm/tracing/otel"
)

func newRecordingTracer(t *testing.T) (*swmotel.Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return swmotel.NewTracer(tp), rec
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) string {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

func TestTracer_SessionWithChildren(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	tr.StartSession("https://forms.example.org", "websocket")
	tr.BridgeInjected()
	tr.MessageReceived("status.handshake", "m1", `{"messageId":"m1"}`)
	tr.HandshakeReceived()
	tr.MessageSent("sdc.configureContext", "m2", `{}`)
	tr.FormSubmitted()
	tr.FinishSession()

	ended := rec.Ended()
	require.Len(t, ended, 6)

	root := ended[len(ended)-1]
	assert.Equal(t, swmotel.SpanSession, root.Name())
	assert.Equal(t, "https://forms.example.org", attrValue(root.Attributes(), swmotel.AttrTargetURL))
	assert.Equal(t, "websocket", attrValue(root.Attributes(), swmotel.AttrBrowserType))
	assert.Equal(t, codes.Ok, root.Status().Code)

	names := make([]string, 0, 5)
	for _, s := range ended[:5] {
		names = append(names, s.Name())
		assert.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID())
		assert.Equal(t, root.SpanContext().TraceID(), s.SpanContext().TraceID())
	}
	assert.Equal(t, []string{
		swmotel.SpanBridgeInjected,
		swmotel.SpanMessageReceive,
		swmotel.SpanHandshakeReceived,
		swmotel.SpanMessageSend,
		swmotel.SpanFormSubmitted,
	}, names)

	assert.Equal(t, "m1", attrValue(ended[1].Attributes(), swmotel.AttrMessageID))
	assert.Equal(t, "sdc.configureContext", attrValue(ended[3].Attributes(), swmotel.AttrMessageType))
}

func TestTracer_HooksOutsideSessionAreDropped(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	tr.HandshakeReceived()
	tr.FinishSession()
	assert.Empty(t, rec.Ended())

	tr.StartSession("a", "b")
	tr.FinishSession()
	tr.FormSubmitted()
	assert.Len(t, rec.Ended(), 1)
}

func TestTracer_RestartEndsPreviousSession(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	tr.StartSession("first", "ws")
	tr.StartSession("second", "ws")
	tr.FinishSession()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "first", attrValue(ended[0].Attributes(), swmotel.AttrTargetURL))
	assert.Equal(t, "second", attrValue(ended[1].Attributes(), swmotel.AttrTargetURL))
}

func TestTracer_NilProviderUsesGlobal(t *testing.T) {
	tr := swmotel.NewTracer(nil)
	assert.NotPanics(t, func() {
		tr.StartSession("x", "y")
		tr.MessageSent("t", "id", "{}")
		tr.FinishSession()
	})
}
