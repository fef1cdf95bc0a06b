package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist records logged-out tokens until their natural expiry.
type TokenDenylist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

const denylistKeyPrefix = "denylist:"

type redisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist backs the denylist with Redis so revocation survives a
// process restart and is shared across replicas.
func NewRedisDenylist(addr string) TokenDenylist {
	return &redisDenylist{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (d *redisDenylist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if err := d.client.Set(ctx, denylistKeyPrefix+token, 1, ttl).Err(); err != nil {
		return fmt.Errorf("denylist token: %w", err)
	}
	return nil
}

func (d *redisDenylist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}
	return n > 0, nil
}

type memoryDenylist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewMemoryDenylist is the single-process fallback used when no Redis
// address is configured.
func NewMemoryDenylist() TokenDenylist {
	return &memoryDenylist{tokens: make(map[string]time.Time)}
}

func (d *memoryDenylist) Add(_ context.Context, token string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune()
	d.tokens[token] = time.Now().Add(ttl)
	return nil
}

func (d *memoryDenylist) Contains(_ context.Context, token string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune()
	_, ok := d.tokens[token]
	return ok, nil
}

func (d *memoryDenylist) prune() {
	now := time.Now()
	for t, exp := range d.tokens {
		if exp.Before(now) {
			delete(d.tokens, t)
		}
	}
}
