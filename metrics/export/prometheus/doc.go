// Package prometheus renders engine metrics in Prometheus text exposition
// format. Counter names are prefixed authgate_*_total; the single histogram
// is authgate_validate_latency_seconds. Nothing is registered globally;
// callers mount [Exporter.Handler] themselves.
package prometheus
