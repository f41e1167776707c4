package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/domain/model"
)

// DefaultLatestResultKey is the durable key holding the latest result record.
const DefaultLatestResultKey = "latestAuditResult"

// RedisLatestResultRepo stores the latest result as JSON under a single Redis key.
type RedisLatestResultRepo struct {
	client redis.UniversalClient
	key    string
}

// NewRedisLatestResultRepo creates a repo writing to key (DefaultLatestResultKey when empty).
func NewRedisLatestResultRepo(client redis.UniversalClient, key string) *RedisLatestResultRepo {
	if strings.TrimSpace(key) == "" {
		key = DefaultLatestResultKey
	}
	return &RedisLatestResultRepo{client: client, key: key}
}

// Save overwrites the slot. No TTL: the record lives until cleared or replaced.
func (r *RedisLatestResultRepo) Save(ctx context.Context, result model.LatestResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode latest result: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns nil, nil when the key is absent.
func (r *RedisLatestResultRepo) Get(ctx context.Context) (*model.LatestResult, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var result model.LatestResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode latest result: %w", err)
	}
	return &result, nil
}

// Clear deletes the key. Deleting an absent key is not an error.
func (r *RedisLatestResultRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Health checks the health of the Redis connection.
func (r *RedisLatestResultRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// MemoryLatestResultRepo keeps the slot in process memory. Used for local runs
// and tests; contents do not survive a restart.
type MemoryLatestResultRepo struct {
	mu     sync.RWMutex
	result *model.LatestResult
}

// NewMemoryLatestResultRepo constructs an empty in-memory slot.
func NewMemoryLatestResultRepo() *MemoryLatestResultRepo {
	return &MemoryLatestResultRepo{}
}

// Save overwrites the slot.
func (m *MemoryLatestResultRepo) Save(_ context.Context, result model.LatestResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = &result
	return nil
}

// Get returns a copy of the stored record, or nil.
func (m *MemoryLatestResultRepo) Get(_ context.Context) (*model.LatestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.result == nil {
		return nil, nil
	}
	out := *m.result
	return &out, nil
}

// Clear empties the slot.
func (m *MemoryLatestResultRepo) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = nil
	return nil
}

// Health always succeeds.
func (m *MemoryLatestResultRepo) Health(context.Context) error { return nil }

var (
	_ core.LatestResultRepository = (*RedisLatestResultRepo)(nil)
	_ core.LatestResultRepository = (*MemoryLatestResultRepo)(nil)
)
