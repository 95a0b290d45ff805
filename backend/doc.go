// Package backend implements the HTTP client for the storefront REST API —
// the external collaborator that owns users, credentials, and the
// authoritative cart.
//
// # Error contract
//
// The engine never sees raw HTTP errors. Every failure is classified here
// into the root sentinels: [shopsession.ErrInvalidCredentials] (login 4xx,
// wrapping the server's message), [shopsession.ErrUnauthorized] (401 on any
// authenticated call), and [shopsession.ErrBackendUnavailable] (network
// failures, timeouts, 5xx, malformed bodies).
//
// # What this package must NOT do
//
//   - Retry on its own — retry policy belongs to the caller.
//   - Touch Redis or any persisted client state.
//   - Interpret approval status or roles: it moves payloads, nothing more.
package backend
