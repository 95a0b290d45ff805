package shopsession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// mockBackend implements BackendClient with per-test function hooks and
// records every add-item call.
type mockBackend struct {
	loginFn       func(email, password string) (LoginResponse, error)
	currentUserFn func(token string) (MeResponse, error)
	cartFn        func(token string) (Cart, error)
	addCartItemFn func(token, productID string, quantity int) (Cart, error)
	clearCartFn   func(token string) error

	mu               sync.Mutex
	addCalls         []addCall
	currentUserCalls int
}

type addCall struct {
	ProductID string
	Quantity  int
}

func (m *mockBackend) Login(_ context.Context, email, password string) (LoginResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(email, password)
	}
	return LoginResponse{
		Token: "tok-1",
		User:  User{ID: "u1", Email: email, Role: RoleCustomer, IsActive: true},
	}, nil
}

func (m *mockBackend) CurrentUser(_ context.Context, token string) (MeResponse, error) {
	m.mu.Lock()
	m.currentUserCalls++
	m.mu.Unlock()
	if m.currentUserFn != nil {
		return m.currentUserFn(token)
	}
	return MeResponse{
		User: User{ID: "u1", Email: "shopper@example.com", Role: RoleCustomer, IsActive: true},
	}, nil
}

func (m *mockBackend) Cart(_ context.Context, token string) (Cart, error) {
	if m.cartFn != nil {
		return m.cartFn(token)
	}
	return Cart{Items: []CartItem{}}, nil
}

func (m *mockBackend) AddCartItem(_ context.Context, token, productID string, quantity int) (Cart, error) {
	m.mu.Lock()
	m.addCalls = append(m.addCalls, addCall{ProductID: productID, Quantity: quantity})
	m.mu.Unlock()
	if m.addCartItemFn != nil {
		return m.addCartItemFn(token, productID, quantity)
	}
	return Cart{}, nil
}

func (m *mockBackend) ClearCart(_ context.Context, token string) error {
	if m.clearCartFn != nil {
		return m.clearCartFn(token)
	}
	return nil
}

func (m *mockBackend) addCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.addCalls)
}

func (m *mockBackend) userCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentUserCalls
}

func testConfig() Config {
	cfg := defaultConfig()
	// Tests drive Refresh explicitly; the background restore refresh would
	// make assertions racy.
	cfg.Session.RefreshOnRestore = false
	return cfg
}

func newTestEngine(t *testing.T, mock *mockBackend) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithBackend(mock).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

// meFor is a currentUserFn returning a fixed role/status combination.
func meFor(role Role, status ApprovalStatus, reason string) func(string) (MeResponse, error) {
	return func(string) (MeResponse, error) {
		return MeResponse{
			User:    User{ID: "u1", Email: "who@example.com", Role: role, IsActive: true},
			Profile: Profile{Status: status, Reason: reason},
		}, nil
	}
}

func credentialsPersisted(t *testing.T, mr *miniredis.Miniredis) bool {
	t.Helper()
	return mr.Exists("ss:credentials")
}

func seedSession(t *testing.T, engine *Engine, role Role, status ApprovalStatus) string {
	t.Helper()

	acct := Account{ID: "u1", Email: "who@example.com", Role: role, IsActive: true, Status: status}
	expiry := time.Now().Add(time.Hour)
	if err := engine.persistAccount(context.Background(), "tok-1", acct, expiry); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	generation := "gen-test"
	engine.setSession(&sessionState{
		token:      "tok-1",
		account:    acct,
		generation: generation,
		expiresAt:  expiry,
	})
	return generation
}
