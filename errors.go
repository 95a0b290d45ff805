package shopsession

import "errors"

var (
	// ErrEngineNotReady is returned when Engine methods run before Build wiring completed.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidCredentials is returned when the backend rejects a login attempt.
	// The backend's own message is wrapped around it verbatim.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is the mapping of a 401 response on any backend call.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionInvalid is returned when a refresh could not confirm the
	// persisted session and the engine fell back to unauthenticated.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrNotAuthenticated is returned by operations that require an established session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrApprovalPending is returned when a seller or deliverer login is gated
	// on an unreviewed profile.
	ErrApprovalPending = errors.New("pending approval")
	// ErrApprovalRejected is returned when a seller or deliverer profile was
	// rejected by an admin. The server-supplied reason is wrapped around it.
	ErrApprovalRejected = errors.New("rejected")
	// ErrNotApproved is returned when a seller or deliverer profile carries an
	// unrecognized or missing approval status.
	ErrNotApproved = errors.New("not approved")
	// ErrBackendUnavailable is the mapping of network failures, timeouts, and
	// 5xx responses from the storefront API.
	ErrBackendUnavailable = errors.New("storefront backend unavailable")
	// ErrStateStoreUnavailable is returned when the client-state store cannot
	// persist or clear the credential record.
	ErrStateStoreUnavailable = errors.New("client state store unavailable")
)
