// Package audit implements async event dispatching for token lifecycle operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, fan-out, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, username, token id, IP, metadata.
//
// This package owns event buffering and sink delivery. It does not decide which
// events to emit; the Engine does. It must not import the root package.
package audit
