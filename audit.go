package shopsession

import (
	"context"
	"errors"
	"io"
	"time"

	internalaudit "github.com/arhamlabs/shopsession/internal/audit"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventLoginRejected   = "login_rejected"
	auditEventRestore         = "session_restore"
	auditEventRefreshSuccess  = "refresh_success"
	auditEventRefreshTeardown = "refresh_teardown"
	auditEventLogout          = "logout"
	auditEventPendingAdd      = "pending_cart_add"
	auditEventCartReconciled  = "cart_reconciled"
)

// AuditErrorCode is the normalized error label carried on audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrApprovalPending    AuditErrorCode = "approval_pending"
	auditErrApprovalRejected   AuditErrorCode = "approval_rejected"
	auditErrNotApproved        AuditErrorCode = "not_approved"
	auditErrBackendUnavailable AuditErrorCode = "backend_unavailable"
	auditErrStateStore         AuditErrorCode = "state_store_unavailable"
	auditErrSessionInvalid     AuditErrorCode = "session_invalid"
	auditErrInternal           AuditErrorCode = "internal"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrApprovalPending):
		return auditErrApprovalPending
	case errors.Is(err, ErrApprovalRejected):
		return auditErrApprovalRejected
	case errors.Is(err, ErrNotApproved):
		return auditErrNotApproved
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrBackendUnavailable
	case errors.Is(err, ErrStateStoreUnavailable):
		return auditErrStateStore
	case errors.Is(err, ErrSessionInvalid):
		return auditErrSessionInvalid
	default:
		return auditErrInternal
	}
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	acct *Account,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Success:   success,
		Metadata:  metadata,
	}
	if acct != nil {
		event.UserID = acct.ID
		event.Email = acct.Email
		event.Role = string(acct.Role)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
