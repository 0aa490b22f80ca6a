// Package internaldefs holds the metric name and bucket definitions shared
// by the exporter implementations, so Prometheus and OTel emit identical
// names and boundaries.
package internaldefs
