package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "parker/internal/domain/wizard"
)

const (
	keyPrefix        = "wizard:"
	maxUpdateRetries = 5
)

// RedisStore keeps sessions in Redis as JSON with a sliding TTL, so several server
// processes can share registrations.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore wraps a connected client. A non-positive ttl uses DefaultTTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(id string) string {
	return keyPrefix + id
}

// Create saves a new session and returns its id.
func (r *RedisStore) Create(ctx context.Context, s *domain.Session) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode wizard session: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.key(id), data, r.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store wizard session: %w", err)
	}
	if !ok {
		return "", ErrConflict
	}
	return id, nil
}

// Get returns the stored session.
func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard session: %w", err)
	}
	return decode(raw)
}

// Update uses WATCH so that two requests racing on the same session cannot both start a
// submission; the loser re-reads and sees Submitting.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(s *domain.Session) error) error {
	key := r.key(id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load wizard session: %w", err)
		}
		s, err := decode(raw)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode wizard session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

// Delete removes the session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func decode(raw []byte) (*domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode wizard session: %w", err)
	}
	return &s, nil
}
