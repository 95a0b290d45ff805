package shopsession

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/arhamlabs/shopsession/internal/stores"
)

func TestRestoreWithoutRecordIsUnauthenticated(t *testing.T) {
	mock := &mockBackend{}
	engine, _, cleanup := newTestEngine(t, mock)
	defer cleanup()

	snap, err := engine.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if snap.Authenticated {
		t.Fatal("expected unauthenticated snapshot")
	}
	if mock.userCallCount() != 0 {
		t.Fatalf("expected no backend calls, got %d", mock.userCallCount())
	}
}

func TestRestoreAdoptsCachedAccount(t *testing.T) {
	mock := &mockBackend{}
	engine, _, cleanup := newTestEngine(t, mock)
	defer cleanup()

	acct := Account{ID: "u1", Email: "who@example.com", Role: RoleCustomer, IsActive: true}
	if err := engine.persistAccount(context.Background(), "tok-1", acct, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	snap, err := engine.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !snap.Authenticated {
		t.Fatal("expected authenticated snapshot")
	}
	if snap.Account.ID != "u1" || snap.Account.Role != RoleCustomer {
		t.Fatalf("unexpected account: %+v", snap.Account)
	}
	// RefreshOnRestore is off in testConfig, so adoption is purely local.
	if mock.userCallCount() != 0 {
		t.Fatalf("expected no backend calls, got %d", mock.userCallCount())
	}
}

func TestRestoreCorruptRecordTreatedAsAbsent(t *testing.T) {
	mock := &mockBackend{}
	engine, mr, cleanup := newTestEngine(t, mock)
	defer cleanup()

	if err := mr.Set("ss:credentials", "{not json"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	snap, err := engine.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if snap.Authenticated {
		t.Fatal("expected unauthenticated snapshot")
	}
	if credentialsPersisted(t, mr) {
		t.Fatal("expected corrupt record to be cleared")
	}
}

func TestRestoreExpiredRecordClears(t *testing.T) {
	mock := &mockBackend{}
	engine, mr, cleanup := newTestEngine(t, mock)
	defer cleanup()

	// A record saved longer ago than the TTL window is stale even when the
	// store key itself never expired.
	acct, _ := json.Marshal(Account{ID: "u1", Role: RoleCustomer})
	record, _ := json.Marshal(stores.CredentialRecord{
		Token:   "tok-old",
		Account: acct,
		SavedAt: time.Now().Add(-8 * 24 * time.Hour).Unix(),
	})
	if err := mr.Set("ss:credentials", string(record)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	snap, err := engine.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if snap.Authenticated {
		t.Fatal("expected unauthenticated snapshot")
	}
	if credentialsPersisted(t, mr) {
		t.Fatal("expected expired record to be cleared")
	}
}

func TestRestoreBackgroundRefreshValidates(t *testing.T) {
	mock := &mockBackend{
		currentUserFn: meFor(RoleCustomer, "", ""),
	}

	mr, rdb := newTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	cfg := defaultConfig()
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithBackend(mock).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	acct := Account{ID: "u1", Email: "stale@example.com", Role: RoleCustomer, IsActive: true}
	if err := engine.persistAccount(context.Background(), "tok-1", acct, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	snap, err := engine.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !snap.Authenticated {
		t.Fatal("expected optimistic adoption")
	}

	engine.bg.Wait()

	if mock.userCallCount() != 1 {
		t.Fatalf("expected one background validation call, got %d", mock.userCallCount())
	}
	got := engine.Snapshot()
	if got.Account.Email != "who@example.com" {
		t.Fatalf("expected refreshed account, got %+v", got.Account)
	}
}

func TestRefreshFailsClosedOnBackendError(t *testing.T) {
	mock := &mockBackend{
		currentUserFn: func(string) (MeResponse, error) {
			return MeResponse{}, ErrBackendUnavailable
		},
	}
	engine, mr, cleanup := newTestEngine(t, mock)
	defer cleanup()

	seedSession(t, engine, RoleCustomer, "")

	_, err := engine.Refresh(context.Background())
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("expected session torn down")
	}
	if credentialsPersisted(t, mr) {
		t.Fatal("expected credentials cleared")
	}
	if got := engine.MetricsSnapshot().Counters[MetricRefreshFailClosed]; got != 1 {
		t.Fatalf("expected 1 fail-closed refresh, got %d", got)
	}
}

func TestRefreshPicksUpRejection(t *testing.T) {
	mock := &mockBackend{
		currentUserFn: meFor(RoleSeller, StatusRejected, "fraud"),
	}
	engine, mr, cleanup := newTestEngine(t, mock)
	defer cleanup()

	seedSession(t, engine, RoleSeller, StatusApproved)

	_, err := engine.Refresh(context.Background())
	if !errors.Is(err, ErrApprovalRejected) {
		t.Fatalf("expected ErrApprovalRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "fraud") {
		t.Fatalf("expected rejection reason surfaced, got %v", err)
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("expected session torn down")
	}
	if credentialsPersisted(t, mr) {
		t.Fatal("expected credentials cleared")
	}
}

func TestRefreshPicksUpApproval(t *testing.T) {
	mock := &mockBackend{
		currentUserFn: meFor(RoleSeller, StatusApproved, ""),
	}
	engine, _, cleanup := newTestEngine(t, mock)
	defer cleanup()

	seedSession(t, engine, RoleSeller, StatusApproved)

	snap, err := engine.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if !snap.Authenticated || snap.Account.Status != StatusApproved {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if got := engine.MetricsSnapshot().Counters[MetricRefreshSuccess]; got != 1 {
		t.Fatalf("expected 1 successful refresh, got %d", got)
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	engine, _, cleanup := newTestEngine(t, &mockBackend{})
	defer cleanup()

	if _, err := engine.Refresh(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	engine, mr, cleanup := newTestEngine(t, &mockBackend{})
	defer cleanup()

	seedSession(t, engine, RoleCustomer, "")

	for i := 0; i < 2; i++ {
		if err := engine.Logout(context.Background()); err != nil {
			t.Fatalf("logout %d failed: %v", i+1, err)
		}
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("expected unauthenticated snapshot")
	}
	if credentialsPersisted(t, mr) {
		t.Fatal("expected credentials cleared")
	}
}

func TestLogoutClearsMemoryWhenStoreDown(t *testing.T) {
	engine, mr, cleanup := newTestEngine(t, &mockBackend{})
	defer cleanup()

	seedSession(t, engine, RoleCustomer, "")

	mr.SetError("store down")
	err := engine.Logout(context.Background())
	mr.SetError("")

	if !errors.Is(err, ErrStateStoreUnavailable) {
		t.Fatalf("expected ErrStateStoreUnavailable, got %v", err)
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("expected in-memory session cleared regardless of store failure")
	}
}

func TestStaleRefreshDiscardedAfterLogout(t *testing.T) {
	mock := &mockBackend{}
	engine, _, cleanup := newTestEngine(t, mock)
	defer cleanup()

	generation := seedSession(t, engine, RoleCustomer, "")
	if err := engine.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	// A refresh carrying the pre-logout generation must discard itself
	// without touching the backend.
	engine.refreshGeneration(context.Background(), generation)

	if mock.userCallCount() != 0 {
		t.Fatalf("expected no backend calls, got %d", mock.userCallCount())
	}
	if got := engine.MetricsSnapshot().Counters[MetricRefreshStaleDiscarded]; got != 1 {
		t.Fatalf("expected 1 discarded refresh, got %d", got)
	}
	if engine.Snapshot().Authenticated {
		t.Fatal("expected session to stay logged out")
	}
}

func TestRestoreStoreUnavailableSurfaced(t *testing.T) {
	engine, mr, cleanup := newTestEngine(t, &mockBackend{})
	defer cleanup()

	mr.SetError("store down")
	_, err := engine.Restore(context.Background())
	mr.SetError("")

	if !errors.Is(err, ErrStateStoreUnavailable) {
		t.Fatalf("expected ErrStateStoreUnavailable, got %v", err)
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}
