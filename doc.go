// Package tokengate provides a stateless authentication layer built on
// short-lived HS256 access tokens and rotating, Redis-recorded refresh tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// tokengate is the public surface. It exposes [Engine], [Builder], [Config]
// and value types ([Identity], [TokenPair], [MetricsSnapshot]). Flow
// orchestration, rate limiting, metrics storage and audit dispatch live under
// internal/. Token encoding lives in jwt/, refresh records in refresh/, and
// HTTP adapters in middleware/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or store key layouts in its public API.
//   - Persist access tokens. Only refresh tokens have server-side records.
//   - Import any sub-package that re-imports tokengate.
//
// # Performance contract
//
// Authenticate is the hot path. It performs no Redis round-trips. Login,
// Reissue and Logout each perform one refresh-store call plus any enabled
// rate-limit checks.
package tokengate
