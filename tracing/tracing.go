// Package tracing provides core.Tracer implementations. NoOp is the
// default used by the engine; package tracing/otel records sessions as
// OpenTelemetry spans.
package tracing

import "github.com/hupe1980/swm/core"

var _ core.Tracer = NoOp{}

// NoOp discards all trace hooks.
type NoOp struct{}

func (NoOp) StartSession(string, string)            {}
func (NoOp) BridgeInjected()                        {}
func (NoOp) MessageSent(string, string, string)     {}
func (NoOp) MessageReceived(string, string, string) {}
func (NoOp) HandshakeReceived()                     {}
func (NoOp) FormSubmitted()                         {}
func (NoOp) FinishSession()                         {}
