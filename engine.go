package shopsession

import (
	"sync"
	"time"

	"github.com/arhamlabs/shopsession/internal/audit"
	"github.com/arhamlabs/shopsession/internal/metrics"
	"github.com/arhamlabs/shopsession/internal/stores"
)

// Engine is the session and cart state core. Construct it through
// [Builder.Build]; the zero value is not usable.
//
// Engine serializes all session mutations (login, refresh, logout) behind a
// single in-flight-operation guard, so concurrent triggers — a background
// refresh racing a login, say — can never leave a mixed state. Reads go
// through [Engine.Snapshot] and never block on the network.
type Engine struct {
	config  Config
	creds   *stores.CredentialStore
	pending *stores.PendingCartStore
	backend BackendClient
	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	// opMu serializes session mutations end to end, network spans included.
	opMu sync.Mutex

	// mu guards the session pointer for fast snapshot reads.
	mu      sync.RWMutex
	session *sessionState

	// bg tracks background refreshes kicked by Restore so Close can drain them.
	bg sync.WaitGroup
}

// sessionState is the in-memory authenticated session. The generation ID
// changes on every establish/teardown; a stale in-flight refresh whose result
// arrives after a logout checks it and discards itself.
type sessionState struct {
	token      string
	account    Account
	cart       *Cart
	generation string
	expiresAt  time.Time
}

// Snapshot returns a read-only view of the current session. It never touches
// the network or the state store.
func (e *Engine) Snapshot() SessionSnapshot {
	if e == nil {
		return SessionSnapshot{}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.session == nil {
		return SessionSnapshot{}
	}

	snap := SessionSnapshot{
		Authenticated: true,
		Token:         e.session.token,
		Account:       e.session.account,
		ExpiresAt:     e.session.expiresAt,
	}
	if e.session.cart != nil {
		cart := *e.session.cart
		cart.Items = append([]CartItem(nil), e.session.cart.Items...)
		snap.Cart = &cart
	}
	return snap
}

// Close waits for background refreshes and flushes the audit pipeline.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.bg.Wait()
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events the dispatcher discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	snap := e.metrics.Snapshot()
	out := MetricsSnapshot{Counters: make(map[MetricID]uint64, len(snap.Counters))}
	for id, v := range snap.Counters {
		out.Counters[MetricID(id)] = v
	}
	return out
}

// currentGeneration returns the active generation ID, or "" when
// unauthenticated.
func (e *Engine) currentGeneration() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return ""
	}
	return e.session.generation
}

// setSession installs a session unconditionally. Callers hold opMu.
func (e *Engine) setSession(s *sessionState) {
	e.mu.Lock()
	e.session = s
	e.mu.Unlock()
}

// updateIfCurrent applies fn to the session only when generation still
// matches. Returns false when the session moved on (logout or re-login) while
// the caller was off doing I/O.
func (e *Engine) updateIfCurrent(generation string, fn func(*sessionState)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || e.session.generation != generation {
		return false
	}
	fn(e.session)
	return true
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(metrics.MetricID(id))
}

func (e *Engine) metricAdd(id MetricID, delta uint64) {
	if e == nil || e.metrics == nil || delta == 0 {
		return
	}
	e.metrics.Add(metrics.MetricID(id), delta)
}

func (e *Engine) tokenExpiry(token string, issuedAt time.Time) time.Time {
	// Opaque tokens fall back to the configured TTL window; JWTs carry their
	// own expiry and the tighter bound wins.
	byTTL := issuedAt.Add(e.config.Session.TokenTTL)
	if exp, ok := bearerExpiry(token); ok && exp.Before(byTTL) {
		return exp
	}
	return byTTL
}
