package authz

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a grant snapshot may be reused before the
// resolver reloads it from storage. Explicit invalidation (login, role or
// grant change) clears an entry sooner.
const DefaultCacheTTL = 5 * time.Minute

// SnapshotCache caches per-user grant snapshots. Get misses on expired or
// absent entries. Invalidate errors are reported to the caller, which treats
// them as best-effort: log and continue, never block the request.
type SnapshotCache interface {
	Get(ctx context.Context, subject string) (*GrantSet, bool)
	Set(ctx context.Context, subject string, gs *GrantSet)
	Invalidate(ctx context.Context, subject string) error
}

// -- in-process cache --

type memoryCacheEntry struct {
	grants    *GrantSet
	expiresAt time.Time
}

type memoryCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]memoryCacheEntry
}

// NewMemoryCache creates an in-process snapshot cache. A zero ttl defaults
// to DefaultCacheTTL.
func NewMemoryCache(ttl time.Duration) SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &memoryCache{ttl: ttl, m: make(map[string]memoryCacheEntry)}
}

func (c *memoryCache) Get(ctx context.Context, subject string) (*GrantSet, bool) {
	c.mu.RLock()
	entry, ok := c.m[subject]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.grants, true
}

func (c *memoryCache) Set(ctx context.Context, subject string, gs *GrantSet) {
	c.mu.Lock()
	c.m[subject] = memoryCacheEntry{grants: gs, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *memoryCache) Invalidate(ctx context.Context, subject string) error {
	c.mu.Lock()
	delete(c.m, subject)
	c.mu.Unlock()
	return nil
}

// -- redis cache --

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a redis-backed snapshot cache so invalidation is
// visible across instances. A zero ttl defaults to DefaultCacheTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &redisCache{client: client, ttl: ttl}
}

func cacheKey(subject string) string {
	return "authz:grants:" + subject
}

func (c *redisCache) Get(ctx context.Context, subject string) (*GrantSet, bool) {
	data, err := c.client.Get(ctx, cacheKey(subject)).Bytes()
	if err != nil {
		return nil, false
	}
	var gs GrantSet
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, false
	}
	return &gs, true
}

func (c *redisCache) Set(ctx context.Context, subject string, gs *GrantSet) {
	data, err := json.Marshal(gs)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(subject), data, c.ttl)
}

func (c *redisCache) Invalidate(ctx context.Context, subject string) error {
	return c.client.Del(ctx, cacheKey(subject)).Err()
}
