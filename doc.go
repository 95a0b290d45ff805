// Package shopsession implements the client-side session and cart state core of a
// multi-role storefront: a token-backed session store, a role/approval gate,
// a pre-login pending-cart buffer, and a cart reconciler that drains the buffer
// into the server-authoritative cart exactly once per login transition.
//
// The package is designed around a single logical client session: Engine methods
// serialize session mutations internally and are safe to call from multiple
// goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// shopsession is the public surface. It exposes [Engine], [Builder], [Config],
// the pure [Decide] gate, and value types (SessionSnapshot, Decision, Cart, etc.).
// Persistence of client state — the credential record and the pending-cart
// buffer — lives under internal/ and is never exported. The storefront REST API
// is an external collaborator reached through the [BackendClient] interface;
// the backend sub-package provides the HTTP implementation.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or record encodings in its public API.
//   - Validate credentials, prices, or stock — the backend owns all of that.
//   - Treat the pending-cart buffer as a source of truth: once a login completes,
//     only the server's cart response defines what is in the cart.
//
// # Failure posture
//
// Session validation fails closed: any failure to confirm the persisted token
// against the backend tears the session down rather than assuming it is still
// valid. The pending-cart buffer is the opposite — pure best effort — and every
// buffer storage failure degrades to a no-op instead of surfacing.
package shopsession
