// Package flows contains the orchestration behind every Engine operation.
//
// Each Run function takes a typed dependency struct and returns a result that
// classifies the outcome with a failure kind. The root package owns the
// resources (codec, store, limiter) and maps failure kinds to its public
// errors, metrics and audit events.
//
// Flows hold no state between calls and perform I/O only through their deps.
// This package must not import the root package.
package flows
