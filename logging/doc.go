// Package logging provides a minimal logging interface and adapters for the
// SMART Web Messaging engine.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, the correlator and the transports use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MessagingLogger with contextual helpers (component, message)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng := engine.New(codec, func(o *engine.Options) { o.Logger = logger })
package logging
