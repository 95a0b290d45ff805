package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCredentialsNotFound is returned when no credential record is persisted.
	ErrCredentialsNotFound = errors.New("credential record not found")
	// ErrCredentialsCorrupt is returned when the persisted record fails to decode.
	ErrCredentialsCorrupt = errors.New("credential record corrupt")
	// ErrStoreUnavailable wraps every transport-level store failure.
	ErrStoreUnavailable = errors.New("client state store unavailable")
)

// CredentialRecord is the persisted token+account pair. Account is kept as
// raw JSON so this package stays decoupled from the root account model.
type CredentialRecord struct {
	Token   string          `json:"token"`
	Account json.RawMessage `json:"account"`
	SavedAt int64           `json:"savedAt"`
}

// CredentialStore persists the single token+account record for this client
// origin. Only the engine's session surface may mutate it.
type CredentialStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewCredentialStore(redisClient redis.UniversalClient, prefix string) *CredentialStore {
	if prefix == "" {
		prefix = "ss"
	}
	return &CredentialStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *CredentialStore) key() string {
	return s.prefix + ":credentials"
}

// Save writes the record with the given TTL, replacing any previous record.
func (s *CredentialStore) Save(ctx context.Context, record *CredentialRecord, ttl time.Duration) error {
	if record == nil || record.Token == "" {
		return fmt.Errorf("%w: empty record", ErrCredentialsCorrupt)
	}
	if record.SavedAt == 0 {
		record.SavedAt = time.Now().Unix()
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialsCorrupt, err)
	}

	if err := s.redis.Set(ctx, s.key(), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Load reads the persisted record. Absence is reported as
// [ErrCredentialsNotFound], never as a transport failure.
func (s *CredentialStore) Load(ctx context.Context) (*CredentialRecord, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var record CredentialRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsCorrupt, err)
	}
	if record.Token == "" {
		return nil, ErrCredentialsCorrupt
	}

	return &record, nil
}

// Clear removes the record. Clearing an absent record is a no-op.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
