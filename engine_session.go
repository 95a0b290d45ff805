package shopsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arhamlabs/shopsession/internal/stores"
)

// Restore rebuilds the session from the persisted credential record on
// startup. An absent record means unauthenticated — no error. A present
// record is adopted optimistically so callers can render immediately, then
// verified against the backend by an asynchronous refresh (unless
// Session.RefreshOnRestore is off). Restore itself never blocks on the
// network.
func (e *Engine) Restore(ctx context.Context) (SessionSnapshot, error) {
	if e == nil || e.creds == nil {
		return SessionSnapshot{}, ErrEngineNotReady
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	record, err := e.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, stores.ErrCredentialsNotFound) {
			return SessionSnapshot{}, nil
		}
		if errors.Is(err, stores.ErrCredentialsCorrupt) {
			// A record we cannot decode is as good as absent.
			_ = e.creds.Clear(ctx)
			return SessionSnapshot{}, nil
		}
		return SessionSnapshot{}, fmt.Errorf("%w: %v", ErrStateStoreUnavailable, err)
	}

	var acct Account
	if err := json.Unmarshal(record.Account, &acct); err != nil {
		_ = e.creds.Clear(ctx)
		return SessionSnapshot{}, nil
	}

	expiry := e.tokenExpiry(record.Token, time.Unix(record.SavedAt, 0))
	if !expiry.After(time.Now()) {
		_ = e.creds.Clear(ctx)
		return SessionSnapshot{}, nil
	}

	generation := uuid.NewString()
	e.setSession(&sessionState{
		token:      record.Token,
		account:    acct,
		generation: generation,
		expiresAt:  expiry,
	})
	e.emitAudit(ctx, auditEventRestore, true, &acct, nil, nil)

	if e.config.Session.RefreshOnRestore {
		e.bg.Add(1)
		go func() {
			defer e.bg.Done()
			e.refreshGeneration(context.WithoutCancel(ctx), generation)
		}()
	}

	return e.Snapshot(), nil
}

// Refresh re-validates the current session against the backend: fetches the
// current user+profile, re-runs the approval gate, and re-persists the merged
// record. Any failure — network, timeout, 401, gate rejection — tears the
// session down. Fail closed, no retry.
func (e *Engine) Refresh(ctx context.Context) (SessionSnapshot, error) {
	if e == nil || e.backend == nil {
		return SessionSnapshot{}, ErrEngineNotReady
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.refreshLocked(ctx)
}

// refreshGeneration is the background-restore entry point. It discards itself
// when the session generation moved on while it waited for the operation lock.
func (e *Engine) refreshGeneration(ctx context.Context, generation string) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.currentGeneration() != generation {
		e.metricInc(MetricRefreshStaleDiscarded)
		return
	}
	_, _ = e.refreshLocked(ctx)
}

func (e *Engine) refreshLocked(ctx context.Context) (SessionSnapshot, error) {
	e.mu.RLock()
	sess := e.session
	e.mu.RUnlock()
	if sess == nil {
		return SessionSnapshot{}, ErrNotAuthenticated
	}
	generation, token := sess.generation, sess.token

	me, err := e.backend.CurrentUser(ctx, token)
	if err != nil {
		e.teardownLocked(ctx, auditEventRefreshTeardown, err)
		e.metricInc(MetricRefreshFailClosed)
		return SessionSnapshot{}, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	acct := MergeAccount(me.User, me.Profile)

	// The gate runs on every refresh, not only at login: approval status can
	// change between page loads (pending→approved, approved→rejected).
	decision := Decide(acct.Role, acct.Status, acct.StatusReason)
	if !decision.Allowed {
		rejection := RejectionError(decision)
		e.teardownLocked(ctx, auditEventRefreshTeardown, rejection)
		e.metricInc(MetricRefreshFailClosed)
		return SessionSnapshot{}, rejection
	}

	if err := e.persistAccount(ctx, token, acct, sess.expiresAt); err != nil {
		// The session is confirmed valid; a re-persist hiccup is not
		// session-invalidating. Recorded and carried on.
		e.emitAudit(ctx, auditEventRefreshSuccess, true, &acct, err, nil)
	}

	e.updateIfCurrent(generation, func(s *sessionState) {
		s.account = acct
	})

	if acct.Role == RoleCustomer {
		if err := e.reconcileLocked(ctx, token, generation); err != nil {
			e.metricInc(MetricRefreshFailClosed)
			return SessionSnapshot{}, err
		}
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, &acct, nil, nil)

	return e.Snapshot(), nil
}

// Logout unconditionally clears the in-memory session and the persisted
// credential record. No network call, idempotent. The in-memory teardown
// always happens, even when the state store is unreachable.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.creds == nil {
		return ErrEngineNotReady
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	acct := (*Account)(nil)
	if e.session != nil {
		a := e.session.account
		acct = &a
	}
	e.session = nil
	e.mu.Unlock()

	e.metricInc(MetricLogout)

	if err := e.creds.Clear(ctx); err != nil {
		e.emitAudit(ctx, auditEventLogout, false, acct, ErrStateStoreUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrStateStoreUnavailable, err)
	}
	e.emitAudit(ctx, auditEventLogout, true, acct, nil, nil)
	return nil
}

// teardownLocked destroys the session after a failed or rejected validation.
// Callers hold opMu, so the teardown completes before their error surfaces —
// no caller can observe a half-valid session.
func (e *Engine) teardownLocked(ctx context.Context, eventType string, cause error) {
	e.mu.Lock()
	acct := (*Account)(nil)
	if e.session != nil {
		a := e.session.account
		acct = &a
	}
	e.session = nil
	e.mu.Unlock()

	_ = e.creds.Clear(ctx)
	e.emitAudit(ctx, eventType, false, acct, cause, nil)
}

// persistAccount writes the token+account pair with the TTL remaining until
// expiry. This is the only credential-store write path.
func (e *Engine) persistAccount(ctx context.Context, token string, acct Account, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: token already expired", ErrSessionInvalid)
	}

	encoded, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateStoreUnavailable, err)
	}

	record := &stores.CredentialRecord{
		Token:   token,
		Account: encoded,
		SavedAt: time.Now().Unix(),
	}
	if err := e.creds.Save(ctx, record, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStateStoreUnavailable, err)
	}
	return nil
}
