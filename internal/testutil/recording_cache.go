package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/atelierhq/atelier/internal/cache"
)

var _ cache.Cache = (*RecordingCache)(nil)

// RecordingCache is an in-memory cache.Cache that counts hits and misses so
// tests can assert on caching behavior. Expirations are ignored.
type RecordingCache struct {
	mu    sync.Mutex
	items map[string]interface{}

	Hits   int
	Misses int
}

// NewRecordingCache creates a new recording cache
func NewRecordingCache() *RecordingCache {
	return &RecordingCache{
		items: make(map[string]interface{}),
	}
}

func (c *RecordingCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, ok := c.items[key]; ok {
		c.Hits++
		return value, true
	}
	c.Misses++
	return nil, false
}

func (c *RecordingCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *RecordingCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *RecordingCache) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]interface{})
}
