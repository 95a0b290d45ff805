// Package middleware exposes route-guard adapters for the role-homed path
// prefixes, for plain net/http stacks ([Guard]) and gin routers
// ([RequireRole]).
//
// # Architecture boundaries
//
// Guards read the engine's session snapshot and delegate every accept/reject
// decision to shopsession.Decide. They never touch the network, Redis, or
// the pending-cart buffer.
//
// # What this package must NOT do
//
//   - Re-implement approval rules (a gate/guard disagreement is a bug by
//     construction, so there is exactly one rule set).
//   - Trigger refreshes or logins; it only observes the current session.
package middleware
