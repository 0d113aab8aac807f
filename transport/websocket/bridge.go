// Package websocket carries SMART Web Messaging envelopes over a WebSocket,
// one JSON document per text frame. It stands in for the postMessage bridge
// an embedded browser would provide.
package websocket

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	xws "golang.org/x/net/websocket"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/logging"
	"github.com/hupe1980/swm/tracing"
)

// BrowserType is reported to the tracer when a guest connects.
const BrowserType = "websocket"

// DefaultMaxMessageBytes bounds a single inbound frame.
const DefaultMaxMessageBytes = 4 << 20

// DefaultWriteTimeout bounds a single outbound frame.
const DefaultWriteTimeout = 10 * time.Second

var _ core.Transport = (*Bridge)(nil)

// Handler processes one inbound document and returns the reply to send back,
// or "" for none. *engine.Engine satisfies it.
type Handler interface {
	HandleMessage(text string) string
}

// Options configures a Bridge.
type Options struct {
	// Tracer receives StartSession, BridgeInjected and FinishSession per
	// connection. Defaults to tracing.NoOp.
	Tracer core.Tracer

	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger

	// MaxMessageBytes limits inbound frames. Defaults to DefaultMaxMessageBytes.
	MaxMessageBytes int

	// WriteTimeout bounds each outbound frame. A guest that stops reading
	// is disconnected once a write exceeds it. Zero disables the deadline.
	// Defaults to DefaultWriteTimeout.
	WriteTimeout time.Duration
}

// Bridge connects one guest at a time. A new connection replaces the
// previous one. Bridge implements core.Transport so the engine can push
// outbound requests to whichever guest is connected.
type Bridge struct {
	tracer       core.Tracer
	logger       logging.Logger
	maxBytes     int
	writeTimeout time.Duration

	mu   sync.Mutex
	conn *xws.Conn

	// writeMu serializes frames; it is never held together with mu.
	writeMu sync.Mutex
}

// NewBridge creates a Bridge with no guest connected.
func NewBridge(optFns ...func(o *Options)) *Bridge {
	opts := Options{
		Tracer:          tracing.NoOp{},
		Logger:          logging.NoOpLogger{},
		MaxMessageBytes: DefaultMaxMessageBytes,
		WriteTimeout:    DefaultWriteTimeout,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Tracer == nil {
		opts.Tracer = tracing.NoOp{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Bridge{
		tracer:       opts.Tracer,
		logger:       opts.Logger,
		maxBytes:     opts.MaxMessageBytes,
		writeTimeout: opts.WriteTimeout,
	}
}

// Deliver sends text to the connected guest. A failed write drops the guest.
func (b *Bridge) Deliver(text string) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return core.ErrTransportUnavailable
	}
	if err := b.write(conn, text); err != nil {
		b.logger.Warn("Websocket send failed", "error", err)
		b.drop(conn)
		return err
	}
	return nil
}

// Connected reports whether a guest is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Handler returns an http.Handler that upgrades GET requests and feeds every
// text frame to h.
func (b *Bridge) Handler(h Handler) http.Handler {
	wsHandler := xws.Handler(func(conn *xws.Conn) {
		b.serveConn(h, conn)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
}

// Close drops the current guest, if any.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (b *Bridge) serveConn(h Handler, conn *xws.Conn) {
	defer func() {
		_ = conn.Close()
	}()
	conn.PayloadType = xws.TextFrame
	if b.maxBytes > 0 {
		conn.MaxPayloadBytes = b.maxBytes
	}

	target := ""
	if req := conn.Request(); req != nil {
		target = req.URL.String()
	}
	logger := b.logger
	if ml, ok := logger.(*logging.MessagingLogger); ok {
		logger = ml.WithContext("target", target)
	}
	b.attach(conn)
	defer b.detach(conn)

	b.tracer.StartSession(target, BrowserType)
	b.tracer.BridgeInjected()
	defer b.tracer.FinishSession()
	logger.Info("Guest connected")

	for {
		var text string
		if err := xws.Message.Receive(conn, &text); err != nil {
			if errors.Is(err, xws.ErrFrameTooLarge) {
				logger.Warn("Dropping oversized frame", "limit", b.maxBytes)
				continue
			}
			if !errors.Is(err, io.EOF) {
				logger.Warn("Websocket receive failed", "error", err)
			}
			logger.Info("Guest disconnected")
			return
		}

		reply := h.HandleMessage(text)
		if reply == "" {
			continue
		}
		if err := b.write(conn, reply); err != nil {
			logger.Warn("Websocket send failed", "error", err)
			return
		}
	}
}

// write sends one frame. Replies and Deliver share writeMu so frames never
// interleave, while Connected and attach only need mu.
func (b *Bridge) write(conn *xws.Conn, text string) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if b.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
			return err
		}
		defer func() {
			_ = conn.SetWriteDeadline(time.Time{})
		}()
	}
	return xws.Message.Send(conn, text)
}

// drop detaches and closes conn after a failed write, leaving a newer guest
// alone.
func (b *Bridge) drop(conn *xws.Conn) {
	b.detach(conn)
	_ = conn.Close()
}

func (b *Bridge) attach(conn *xws.Conn) {
	b.mu.Lock()
	prev := b.conn
	b.conn = conn
	b.mu.Unlock()
	if prev != nil {
		b.logger.Info("Replacing connected guest")
		_ = prev.Close()
	}
}

func (b *Bridge) detach(conn *xws.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == conn {
		b.conn = nil
	}
}
