package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrBufferCorrupt is returned when the persisted buffer fails to decode.
var ErrBufferCorrupt = errors.New("pending cart buffer corrupt")

// PendingEntry is one buffered add-to-cart intent.
type PendingEntry struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PendingCartStore persists the anonymous pre-login cart buffer as a single
// JSON array: an ordered sequence with productID-unique entries. Only the
// engine's cart surface may mutate it.
type PendingCartStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewPendingCartStore(redisClient redis.UniversalClient, prefix string) *PendingCartStore {
	if prefix == "" {
		prefix = "ss"
	}
	return &PendingCartStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *PendingCartStore) key() string {
	return s.prefix + ":pending-cart"
}

// Add appends a new entry, or increments quantity when productID is already
// buffered. The read-modify-write runs under an optimistic WATCH transaction
// so interleaved adds never lose an increment.
func (s *PendingCartStore) Add(ctx context.Context, productID string, quantity int) error {
	if productID == "" || quantity < 1 {
		return fmt.Errorf("%w: invalid entry %q x%d", ErrBufferCorrupt, productID, quantity)
	}

	const maxRetries = 4
	key := s.key()

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			entries, err := readEntries(ctx, tx, key)
			if err != nil {
				return err
			}

			merged := false
			for idx := range entries {
				if entries[idx].ProductID == productID {
					entries[idx].Quantity += quantity
					merged = true
					break
				}
			}
			if !merged {
				entries = append(entries, PendingEntry{ProductID: productID, Quantity: quantity})
			}

			encoded, err := json.Marshal(entries)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrBufferCorrupt, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrBufferCorrupt) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%w: add contention not resolved", ErrStoreUnavailable)
}

// List returns the buffered entries in insertion order. An absent buffer is
// an empty list, not an error.
func (s *PendingCartStore) List(ctx context.Context) ([]PendingEntry, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []PendingEntry{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var entries []PendingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferCorrupt, err)
	}

	return entries, nil
}

// Clear deletes the buffer. Clearing an absent buffer is a no-op.
func (s *PendingCartStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func readEntries(ctx context.Context, tx *redis.Tx, key string) ([]PendingEntry, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entries []PendingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt buffer is abandoned rather than defended: the buffer is
		// best-effort intent capture and the caller starts a fresh sequence.
		return nil, nil
	}
	return entries, nil
}
