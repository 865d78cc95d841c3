// Package otel provides OpenTelemetry bindings for the engine's counters.
//
// The exporter registers one Int64ObservableCounter per engine metric and
// observes the engine's snapshot on each collection cycle, so it adds no cost
// to the request path.
package otel
