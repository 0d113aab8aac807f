// Package swm provides a high-level façade for hosting a SMART Web Messaging
// guest application that works with FHIR R4 resources. Most applications
// interact with this package by:
//  1. Creating a Host via New() (optionally overriding the in-memory scratchpad,
//     tracer and logger)
//  2. Registering listeners for handshake, scratchpad, form and close events
//  3. Serving Handler() so the guest can connect, then pushing SDC requests
//     with ConfigureContext and DisplayQuestionnaire
//
// The façade delegates protocol handling to engine.Engine and the wire to
// transport/websocket while keeping setup concise. All defaults are safe for
// local development and testing.
package swm

import (
	"net/http"

	"github.com/hupe1980/swm/config"
	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/engine"
	"github.com/hupe1980/swm/fhir/r4"
	"github.com/hupe1980/swm/logging"
	"github.com/hupe1980/swm/sdc"
	"github.com/hupe1980/swm/tracing"
	"github.com/hupe1980/swm/transport/websocket"
)

// Listener observes lifecycle events carrying R4 resources.
type Listener = core.Listener[*r4.Resource]

// Options configures the Host instance.
type Options struct {
	// Engine configuration (messaging handle, request timeout)
	EngineConfig engine.Config

	// Scratchpad (defaults to an in-memory store if not provided)
	Scratchpad core.ScratchpadStore[*r4.Resource]

	// Tracer (defaults to tracing.NoOp if nil)
	Tracer core.Tracer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// MaxMessageBytes limits inbound websocket frames.
	MaxMessageBytes int
}

// Host is the high-level façade aggregating the engine and its websocket bridge.
type Host struct {
	opts   Options
	engine *engine.Engine[*r4.Resource]
	bridge *websocket.Bridge
}

// New creates a new Host with optional overrides.
func New(optFns ...func(o *Options)) *Host {
	opts := Options{
		EngineConfig:    engine.DefaultConfig,
		Tracer:          tracing.NoOp{},
		Logger:          logging.NoOpLogger{},
		MaxMessageBytes: websocket.DefaultMaxMessageBytes,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	bridge := websocket.NewBridge(func(o *websocket.Options) {
		o.Tracer = opts.Tracer
		o.Logger = opts.Logger
		o.MaxMessageBytes = opts.MaxMessageBytes
	})

	e := engine.New[*r4.Resource](r4.Codec{}, func(o *engine.Options[*r4.Resource]) {
		o.Config = opts.EngineConfig
		o.Scratchpad = opts.Scratchpad
		o.Transport = bridge
		o.Tracer = opts.Tracer
		o.Logger = opts.Logger
	})

	return &Host{opts: opts, engine: e, bridge: bridge}
}

// WithConfig applies environment configuration loaded by config.Load.
func WithConfig(cfg config.Config) func(o *Options) {
	return func(o *Options) {
		o.EngineConfig = cfg.Engine()
		o.Logger = cfg.Logger()
	}
}

// Engine exposes the underlying protocol engine.
func (h *Host) Engine() *engine.Engine[*r4.Resource] { return h.engine }

// AddListener registers l for lifecycle events.
func (h *Host) AddListener(l *Listener) { h.engine.AddListener(l) }

// RemoveListener unregisters l.
func (h *Host) RemoveListener(l *Listener) bool { return h.engine.RemoveListener(l) }

// HandleMessage processes one inbound document, for hosts that bring their
// own transport.
func (h *Host) HandleMessage(text string) string { return h.engine.HandleMessage(text) }

// Scratchpad returns the staged resources.
func (h *Host) Scratchpad() core.ScratchpadStore[*r4.Resource] { return h.engine.Scratchpad() }

// Handler returns the HTTP routes: the guest websocket at /swm and a
// liveness probe at /up.
func (h *Host) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/swm", h.bridge.Handler(h.engine))
	return mux
}

// ConfigureContext sends sdc.configureContext whose context carries only
// launchContext entries built from the given resources. Nil resources are
// skipped. Callers that also want subject, encounter or author set build an
// sdc.Context and use sdc.SendConfigureContext directly.
func (h *Host) ConfigureContext(patient, encounter, user *r4.Resource, handler core.ResponseHandler) (string, error) {
	ctx, err := r4.LaunchContext(patient, encounter, user)
	if err != nil {
		return "", err
	}
	return sdc.SendConfigureContext(h.engine, sdc.ConfigureContext{Context: ctx}, handler)
}

// DisplayQuestionnaire sends sdc.displayQuestionnaire. response and ctx may be nil.
func (h *Host) DisplayQuestionnaire(questionnaire, response *r4.Resource, ctx *sdc.Context, handler core.ResponseHandler) (string, error) {
	req, err := r4.DisplayQuestionnaire(questionnaire, response, ctx)
	if err != nil {
		return "", err
	}
	return sdc.SendDisplayQuestionnaire(h.engine, req, handler)
}

// Close resolves pending requests with core.ErrClosed and drops the guest.
func (h *Host) Close() error {
	h.engine.Close()
	return h.bridge.Close()
}
