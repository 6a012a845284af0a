// Package observe provides structured logging, metrics, and tracing
// for the synchronization layer.
//
// It wires OpenTelemetry tracing and metrics behind a single Observer
// with pluggable exporters, plus a JSON structured logger that redacts
// credential-bearing fields. Everything defaults to no-op so the
// library never forces telemetry on its callers.
package observe
