// Package internal holds packages private to tokengate.
//
//   - audit: buffered asynchronous event dispatch
//   - config: viper-backed service configuration
//   - flows: per-operation orchestration behind the Engine
//   - logging: slog setup and request-scoped fields
//   - metrics: lock-free counters and latency histograms
//   - rate: Redis attempt budgets for login and reissue
//   - server: chi router, handlers and the HTTP server lifecycle
package internal
