package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers logged-out sessions until they would have expired.
type Revoker interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

const revokedKeyPrefix = "session:revoked:"

// RedisRevoker stores one key per revoked session with a matching TTL.
type RedisRevoker struct {
	rdb   redis.Cmdable
	clock func() time.Time
}

func NewRedisRevoker(rdb redis.Cmdable) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, clock: time.Now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := until.Sub(r.clock())
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKeyPrefix+sessionID, 1, ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevoker is a Revoker for tests and single-process local runs.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: map[string]time.Time{}, clock: time.Now}
}

func (m *MemoryRevoker) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[sessionID] = until
	return nil
}

func (m *MemoryRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if !m.clock().Before(until) {
		delete(m.revoked, sessionID)
		return false, nil
	}
	return true, nil
}
