// Package otel exposes engine metrics as OpenTelemetry observable
// instruments. [NewExporter] registers one Int64ObservableCounter per
// engine counter and Int64ObservableGauges per histogram bucket; a single
// callback reads a metrics snapshot on each collection cycle. Callers own
// the MeterProvider.
package otel
