// Package metrics provides lock-free counters for shopsession observability.
//
// # Design
//
// Counters are plain atomic uint64 slots incremented via sync/atomic. The
// write path is allocation-free; Snapshot allocates one map per call.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation only. The metric ID
// namespace and any export wiring live in the root package.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import the root package or any sibling package.
//   - Expose global metric registries.
package metrics
