package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const blacklistPrefix = "blacklist:"

// Blacklist remembers revoked tokens until they would have expired anyway.
type Blacklist interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	Revoked(ctx context.Context, token string) (bool, error)
}

type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistPrefix+token, 1, ttl).Err()
}

func (b *RedisBlacklist) Revoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryBlacklist is used when no Redis is configured.
type MemoryBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryBlacklist(now func() time.Time) *MemoryBlacklist {
	if now == nil {
		now = time.Now
	}
	return &MemoryBlacklist{tokens: make(map[string]time.Time), now: now}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, token string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens[token] = until
	b.purge()
	return nil
}

func (b *MemoryBlacklist) Revoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.tokens[token]
	if !ok {
		return false, nil
	}
	if !b.now().Before(until) {
		delete(b.tokens, token)
		return false, nil
	}
	return true, nil
}

// purge drops expired entries. Callers hold mu.
func (b *MemoryBlacklist) purge() {
	now := b.now()
	for token, until := range b.tokens {
		if !now.Before(until) {
			delete(b.tokens, token)
		}
	}
}
