package shopsession

import (
	"errors"
	"time"
)

// Config is the full engine configuration tree. A zero Config is not usable;
// start from the defaults installed by [New] and override selectively via
// [Builder.WithConfig].
type Config struct {
	Session SessionConfig
	Backend BackendConfig
	Cart    CartConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls credential persistence and restore behavior.
type SessionConfig struct {
	// RedisPrefix namespaces every client-state key.
	RedisPrefix string
	// TokenTTL bounds how long a persisted credential record survives
	// without a successful refresh. The storefront issues 7-day tokens.
	TokenTTL time.Duration
	// RefreshOnRestore controls whether Restore kicks an asynchronous
	// verification against the backend after optimistically adopting the
	// cached record. Disabled only in tests that drive Refresh directly.
	RefreshOnRestore bool
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig describes the storefront REST API collaborator.
type BackendConfig struct {
	// BaseURL is the API origin, e.g. "https://api.example.com". Informational
	// at the engine level; the backend client is constructed from it.
	BaseURL string
	// Timeout bounds every backend call. A timeout is classified identically
	// to a network failure.
	Timeout time.Duration
}

/*
====================================
CART CONFIG
====================================
*/

// CartConfig controls the reconciler's fan-out.
type CartConfig struct {
	// MaxParallelAdds caps concurrent add-item calls while draining the
	// pending buffer. Each call is independent, so parallelism is safe;
	// buffer clearing never starts before all calls settle.
	MaxParallelAdds int
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:      "ss",
			TokenTTL:         7 * 24 * time.Hour,
			RefreshOnRestore: true,
		},
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Cart: CartConfig{
			MaxParallelAdds: 4,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the clone exists so Builder callers
	// can mutate their copy after WithConfig without reaching into the engine.
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.Session.RedisPrefix == "" {
		return errors.New("session redis prefix must not be empty")
	}
	if cfg.Session.TokenTTL <= 0 {
		return errors.New("session token ttl must be positive")
	}
	if cfg.Backend.Timeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	if cfg.Cart.MaxParallelAdds <= 0 {
		return errors.New("cart max parallel adds must be positive")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}
