package shopsession

import (
	"errors"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/arhamlabs/shopsession/internal/audit"
	"github.com/arhamlabs/shopsession/internal/stores"
)

// Builder assembles an [Engine]. Construction is allocation-only: no I/O
// happens until the first Engine method call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	backend   BackendClient
	auditSink AuditSink

	built bool
}

// New returns a Builder carrying the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration tree.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client-state store backend. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackend sets the storefront REST collaborator. Required.
func (b *Builder) WithBackend(client BackendClient) *Builder {
	b.backend = client
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. A Builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.backend == nil {
		return nil, errors.New("backend client is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	b.built = true

	engine := &Engine{
		config:  b.config,
		creds:   stores.NewCredentialStore(b.redis, b.config.Session.RedisPrefix),
		pending: stores.NewPendingCartStore(b.redis, b.config.Session.RedisPrefix),
		backend: b.backend,
		metrics: newMetrics(b.config.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
	}

	return engine, nil
}
