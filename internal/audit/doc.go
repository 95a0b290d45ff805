// Package audit provides the asynchronous audit event pipeline for session
// and cart transitions: a canonical Event model, pluggable sinks, and a
// buffered dispatcher with drop accounting.
//
// # Architecture boundaries
//
// This package owns event buffering and delivery only. Event construction and
// the decision of what to audit live in the root engine.
//
// # What this package must NOT do
//
//   - Perform network or Redis I/O (sinks may, behind the Sink interface).
//   - Block engine hot paths: Emit is non-blocking when DropIfFull is set.
//   - Import the root package or any sibling package.
package audit
