// Package prometheus exposes tokengate engine metrics through
// prometheus/client_golang.
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(tgprom.NewCollector(engine))
//
// Counters map one-to-one onto engine MetricIDs. The authenticate latency
// histogram keeps the engine's fixed bucket layout and reports a zero sum.
package prometheus
