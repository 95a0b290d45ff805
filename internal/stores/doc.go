// Package stores implements Redis persistence for the two pieces of durable
// client state: the credential record (token + merged account, bounded by the
// token TTL) and the pending-cart buffer (no TTL, cleared only by an explicit
// drain).
//
// # Architecture boundaries
//
// Records are stored as JSON under a configurable key prefix. This package
// reports honest errors; the policy of swallowing buffer failures belongs to
// the root engine.
//
// # What this package must NOT do
//
//   - Interpret account contents (the account travels as raw JSON).
//   - Talk to the storefront backend.
//   - Import the root package.
package stores
