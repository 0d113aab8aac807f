package websocket_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	xws "golang.org/x/net/websocket"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/engine"
	"github.com/hupe1980/swm/fhir/r4"
	"github.com/hupe1980/swm/internal/testutil"
	"github.com/hupe1980/swm/logging"
	"github.com/hupe1980/swm/transport/websocket"
)

type fixture struct {
	bridge *websocket.Bridge
	engine *engine.Engine[*r4.Resource]
	tracer *testutil.TracerRecorder
	srv    *httptest.Server
}

func newFixture(t *testing.T, optFns ...func(o *websocket.Options)) *fixture {
	t.Helper()
	tracer := &testutil.TracerRecorder{}
	bridge := websocket.NewBridge(func(o *websocket.Options) {
		o.Tracer = tracer
		for _, fn := range optFns {
			fn(o)
		}
	})
	eng := engine.New[*r4.Resource](r4.Codec{}, func(o *engine.Options[*r4.Resource]) {
		o.Transport = bridge
		o.Config.RequestTimeout = 5 * time.Second
	})
	srv := httptest.NewServer(bridge.Handler(eng))
	t.Cleanup(func() {
		eng.Close()
		_ = bridge.Close()
		srv.Close()
	})
	return &fixture{bridge: bridge, engine: eng, tracer: tracer, srv: srv}
}

func (f *fixture) dial(t *testing.T) *xws.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/swm"
	conn, err := xws.Dial(wsURL, "", f.srv.URL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	require.Eventually(t, f.bridge.Connected, 2*time.Second, 5*time.Millisecond)
	return conn
}

func send(t *testing.T, conn *xws.Conn, text string) {
	t.Helper()
	if err := xws.Message.Send(conn, text); err != nil {
		t.Fatalf("send frame: %v", err)
	}
}

func receive(t *testing.T, conn *xws.Conn) string {
	t.Helper()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	var text string
	if err := xws.Message.Receive(conn, &text); err != nil {
		t.Fatalf("receive frame: %v", err)
	}
	return text
}

func TestBridge_RequestReply(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	send(t, conn, testutil.NewEnvelopeBuilder(core.MessageTypeHandshake).ID("hs").Build())
	reply := receive(t, conn)
	assert.Equal(t, "hs", gjson.Get(reply, "responseToMessageId").String())

	send(t, conn, `{"messageId":"bad","payload":`)
	reply = receive(t, conn)
	assert.Equal(t, "bad", gjson.Get(reply, "responseToMessageId").String())
	assert.Contains(t, gjson.Get(reply, "payload.errorMessage").String(), "Failed to parse message")
}

func TestBridge_OutboundRequestRoundTrip(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	final := make(chan core.Response, 1)
	id, err := f.engine.SendAsync(core.MessageTypeConfigureContext, nil, func(r core.Response) {
		if r.Final {
			final <- r
		}
	})
	require.NoError(t, err)

	req := receive(t, conn)
	assert.Equal(t, id, gjson.Get(req, "messageId").String())
	assert.Equal(t, core.MessageTypeConfigureContext, gjson.Get(req, "messageType").String())

	send(t, conn, testutil.ResponseText(id, false, `{"status":"ok"}`))
	select {
	case r := <-final:
		assert.NoError(t, r.Err)
		assert.Equal(t, "ok", gjson.GetBytes(r.Payload, "status").String())
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal response")
	}
}

func TestBridge_DeliverWithoutGuest(t *testing.T) {
	b := websocket.NewBridge()
	assert.False(t, b.Connected())
	assert.ErrorIs(t, b.Deliver("{}"), core.ErrTransportUnavailable)
	assert.NoError(t, b.Close())
}

func TestBridge_DisconnectDetachesGuest(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return !f.bridge.Connected() }, 2*time.Second, 5*time.Millisecond)
	_, err := f.engine.SendAsync(core.MessageTypeConfigureContext, nil, nil)
	assert.ErrorIs(t, err, core.ErrTransportUnavailable)

	require.Eventually(t, func() bool { return f.tracer.Count("FinishSession") == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.tracer.Count("StartSession"))
	assert.Equal(t, 1, f.tracer.Count("BridgeInjected"))
}

func TestBridge_RejectsNonGet(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.srv.URL, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBridge_StalledGuestDoesNotBlock(t *testing.T) {
	f := newFixture(t, func(o *websocket.Options) { o.WriteTimeout = 200 * time.Millisecond })
	_ = f.dial(t) // never reads

	frame := strings.Repeat("x", 1<<20)
	done := make(chan error, 1)
	go func() {
		for i := 0; i < 256; i++ {
			if err := f.bridge.Deliver(frame); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	deadline := time.After(5 * time.Second)
	for {
		start := time.Now()
		f.bridge.Connected()
		require.Less(t, time.Since(start), 100*time.Millisecond, "Connected blocked behind a stalled write")

		select {
		case err := <-done:
			require.Error(t, err, "writes to a guest that never reads should time out")
			assert.False(t, f.bridge.Connected())
			_, err = f.engine.SendAsync(core.MessageTypeConfigureContext, nil, nil)
			assert.ErrorIs(t, err, core.ErrTransportUnavailable)
			return
		case <-deadline:
			t.Fatal("Deliver stayed blocked on a guest that never reads")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// syncBuffer guards a bytes.Buffer shared between the server goroutine and
// the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		var m map[string]any
		if json.Unmarshal([]byte(line), &m) == nil {
			out = append(out, m)
		}
	}
	return out
}

func TestBridge_LogsCarryConnectionTarget(t *testing.T) {
	out := &syncBuffer{}
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: out, Component: "bridge"})
	f := newFixture(t, func(o *websocket.Options) { o.Logger = logger })
	conn := f.dial(t)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return len(out.Lines()) >= 2 }, 2*time.Second, 5*time.Millisecond)
	lines := out.Lines()
	assert.Equal(t, "Guest connected", lines[0]["msg"])
	assert.Equal(t, "/swm", lines[0]["target"])
	assert.Equal(t, "bridge", lines[0]["component"])
	assert.Equal(t, "Guest disconnected", lines[1]["msg"])
	assert.Equal(t, "/swm", lines[1]["target"])
}
