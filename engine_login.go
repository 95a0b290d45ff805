package shopsession

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Login authenticates against the backend and establishes a session.
//
// The ordering contract is strict: the token+user pair is persisted
// synchronously before the profile validation call, and any rollback is
// complete before Login returns. A seller or deliverer rejected by the
// approval gate therefore never leaves a persisted token behind — the
// teardown happens first, the rejection error second.
//
// On acceptance the caller receives the gate's redirect destination; for
// customers the pending-cart buffer is drained into the server cart before
// Login returns.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil || e.backend == nil || e.creds == nil {
		return nil, ErrEngineNotReady
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	resp, err := e.backend.Login(ctx, email, password)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, nil, err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	now := time.Now()
	expiry := e.tokenExpiry(resp.Token, now)
	provisional := MergeAccount(resp.User, Profile{})

	// Persist first, validate second. Rollback on any later failure is
	// synchronous and completes before the error crosses this boundary.
	if err := e.persistAccount(ctx, resp.Token, provisional, expiry); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, &provisional, err, nil)
		return nil, err
	}

	generation := uuid.NewString()
	e.setSession(&sessionState{
		token:      resp.Token,
		account:    provisional,
		generation: generation,
		expiresAt:  expiry,
	})

	me, err := e.backend.CurrentUser(ctx, resp.Token)
	if err != nil {
		e.teardownLocked(ctx, auditEventLoginFailure, err)
		e.metricInc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	acct := MergeAccount(me.User, me.Profile)
	decision := Decide(acct.Role, acct.Status, acct.StatusReason)
	if !decision.Allowed {
		rejection := RejectionError(decision)
		e.teardownLocked(ctx, auditEventLoginRejected, rejection)
		e.metricInc(MetricLoginRejected)
		return nil, rejection
	}

	if err := e.persistAccount(ctx, resp.Token, acct, expiry); err != nil {
		// The session is valid; the provisional record on disk is merely
		// missing profile fields until the next refresh re-persists.
		e.emitAudit(ctx, auditEventLoginSuccess, true, &acct, err, nil)
	}
	e.updateIfCurrent(generation, func(s *sessionState) {
		s.account = acct
	})

	if acct.Role == RoleCustomer {
		if err := e.reconcileLocked(ctx, resp.Token, generation); err != nil {
			e.metricInc(MetricLoginFailure)
			return nil, err
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, &acct, nil, func() map[string]string {
		return map[string]string{"destination": decision.Destination}
	})

	return &LoginResult{
		Destination: decision.Destination,
		Session:     e.Snapshot(),
	}, nil
}
