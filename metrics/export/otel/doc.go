// Package otel bridges tokengate engine metrics to an OpenTelemetry meter
// using observable instruments. Names match the Prometheus exporter.
package otel
