package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cellardoor/indieauth/cache"
	"github.com/cellardoor/indieauth/domain"
)

// CodeStore implements cache.CodeStore backed by Redis, for deployments that
// want codes to survive a process restart. Expiry is enforced with per-key
// TTLs; capacity bounding is left to the Redis server's own maxmemory
// policy, which should be configured to an LRU mode.
type CodeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCodeStore creates a new [CodeStore] instance.
func NewCodeStore(client *redis.Client, prefix string, ttl time.Duration) *CodeStore {
	return &CodeStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// redisKey returns the Redis key for a given code.
func (r *CodeStore) redisKey(code string) string {
	return fmt.Sprintf("%s:code:%s", r.prefix, code)
}

// Put stores an authorization grant with the configured TTL.
func (r *CodeStore) Put(ctx context.Context, code *domain.AuthCode) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal auth code: %w", err)
	}

	if err := r.client.Set(ctx, r.redisKey(code.Code), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store auth code in redis: %w", err)
	}

	return nil
}

// Get retrieves an authorization grant. Unknown and expired codes both
// surface as cache.ErrCodeNotFound.
func (r *CodeStore) Get(ctx context.Context, code string) (*domain.AuthCode, error) {
	payload, err := r.client.Get(ctx, r.redisKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to read auth code from redis: %w", err)
	}

	var rec domain.AuthCode
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth code: %w", err)
	}

	return &rec, nil
}

// Delete removes a code.
func (r *CodeStore) Delete(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, r.redisKey(code)).Err(); err != nil {
		return fmt.Errorf("failed to delete auth code from redis: %w", err)
	}

	return nil
}

// Count returns the number of stored codes. It scans the keyspace and is
// meant for diagnostics, not hot paths.
func (r *CodeStore) Count(ctx context.Context) int {
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+":code:*", 100).Result()
		if err != nil {
			return total
		}
		total += len(keys)
		if next == 0 {
			return total
		}
		cursor = next
	}
}

// Close releases the underlying Redis client.
func (r *CodeStore) Close() error {
	return r.client.Close()
}
