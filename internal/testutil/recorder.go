package testutil

import (
	"encoding/json"
	"sync"

	"github.com/hupe1980/swm/core"
)

var (
	_ core.Transport = (*TransportRecorder)(nil)
	_ core.Tracer    = (*TracerRecorder)(nil)
)

// TransportRecorder is a core.Transport that keeps every delivered text.
// Setting Err makes Deliver fail.
type TransportRecorder struct {
	mu   sync.Mutex
	sent []string
	Err  error
}

// Deliver records text, or returns Err when set.
func (t *TransportRecorder) Deliver(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	t.sent = append(t.sent, text)
	return nil
}

// Sent returns a copy of the delivered texts.
func (t *TransportRecorder) Sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

// Last decodes the most recently delivered request envelope.
func (t *TransportRecorder) Last() (core.Envelope, bool) {
	sent := t.Sent()
	if len(sent) == 0 {
		return core.Envelope{}, false
	}
	var env core.Envelope
	if err := json.Unmarshal([]byte(sent[len(sent)-1]), &env); err != nil {
		return core.Envelope{}, false
	}
	return env, true
}

// TracerRecorder is a core.Tracer that counts hook calls by name.
type TracerRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (t *TracerRecorder) record(name string) {
	t.mu.Lock()
	t.calls = append(t.calls, name)
	t.mu.Unlock()
}

// Calls returns the hook names in call order.
func (t *TracerRecorder) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// Count returns how often the named hook ran.
func (t *TracerRecorder) Count(name string) int {
	n := 0
	for _, c := range t.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (t *TracerRecorder) StartSession(string, string)            { t.record("StartSession") }
func (t *TracerRecorder) BridgeInjected()                        { t.record("BridgeInjected") }
func (t *TracerRecorder) MessageSent(string, string, string)     { t.record("MessageSent") }
func (t *TracerRecorder) MessageReceived(string, string, string) { t.record("MessageReceived") }
func (t *TracerRecorder) HandshakeReceived()                     { t.record("HandshakeReceived") }
func (t *TracerRecorder) FormSubmitted()                         { t.record("FormSubmitted") }
func (t *TracerRecorder) FinishSession()                         { t.record("FinishSession") }
