package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListener_Dispatch(t *testing.T) {
	var got []EventKind
	l := &Listener[string]{
		OnResourceChanged: func(e ResourceChanged[string]) {
			assert.Equal(t, "Observation/1", e.Location)
			assert.Equal(t, "obs", e.Resource)
			got = append(got, e.Kind())
		},
		OnFormSubmitted:     func(e FormSubmitted[string]) { got = append(got, e.Kind()) },
		OnHandshakeReceived: func(e HandshakeReceived) { got = append(got, e.Kind()) },
		OnCloseApplication:  func(e CloseApplication) { got = append(got, e.Kind()) },
	}

	l.Dispatch(HandshakeReceived{})
	l.Dispatch(ResourceChanged[string]{Location: "Observation/1", Resource: "obs"})
	l.Dispatch(FormSubmitted[string]{Response: "qr"})
	l.Dispatch(CloseApplication{})

	assert.Equal(t, []EventKind{
		EventHandshakeReceived,
		EventResourceChanged,
		EventFormSubmitted,
		EventCloseApplication,
	}, got)
}

func TestListener_DispatchSkipsNilCallbacks(t *testing.T) {
	calls := 0
	l := &Listener[string]{OnCloseApplication: func(CloseApplication) { calls++ }}

	assert.NotPanics(t, func() {
		l.Dispatch(HandshakeReceived{})
		l.Dispatch(ResourceChanged[string]{Location: "Patient/1"})
		l.Dispatch(FormSubmitted[string]{})
	})
	l.Dispatch(CloseApplication{})
	assert.Equal(t, 1, calls)
}

func TestListener_DispatchIgnoresOtherResourceTypes(t *testing.T) {
	called := false
	l := &Listener[string]{OnResourceChanged: func(ResourceChanged[string]) { called = true }}
	l.Dispatch(ResourceChanged[int]{Location: "Patient/1", Resource: 1})
	assert.False(t, called)
}

func TestSessionState_String(t *testing.T) {
	cases := map[SessionState]string{
		StateIdle:              "idle",
		StateAwaitingHandshake: "awaiting_handshake",
		StateActive:            "active",
		StateClosed:            "closed",
		SessionState(42):       "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}

func TestTransportFunc(t *testing.T) {
	var got string
	var tr Transport = TransportFunc(func(text string) error { got = text; return nil })
	assert.NoError(t, tr.Deliver("hello"))
	assert.Equal(t, "hello", got)
}
