// Package otel records messaging sessions as OpenTelemetry spans and wires
// an OTLP/HTTP exporter for hosts that opt into tracing.
package otel
