package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "auth:revoked:v1:"

// RevocationList remembers refresh token ids that were logged out until the
// tokens would have expired anyway.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationList stores revoked ids as expiring Redis keys.
type RedisRevocationList struct {
	cache *redis.Client
	now   func() time.Time
}

func NewRedisRevocationList(cache *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{cache: cache, now: time.Now}
}

func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	if err := l.cache.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (l *RedisRevocationList) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.cache.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// MemoryRevocationList keeps revoked ids in process. Entries are dropped
// lazily once expired.
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{entries: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryRevocationList) Revoke(_ context.Context, tokenID string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if !until.After(now) {
		return nil
	}
	for id, exp := range l.entries {
		if !exp.After(now) {
			delete(l.entries, id)
		}
	}
	l.entries[tokenID] = until
	return nil
}

func (l *MemoryRevocationList) Revoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !exp.After(l.now()) {
		delete(l.entries, tokenID)
		return false, nil
	}
	return true, nil
}
