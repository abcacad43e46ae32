package memory

import (
	"context"
	"sync"
	"time"

	"github.com/thihaagset01/midwhereah/internal/core/ports"
	"github.com/thihaagset01/midwhereah/internal/pkg/metrics"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is an in-process ports.CacheService with per-entry TTL. It is the
// default cache when no Valkey address is configured; single-replica
// deployments lose nothing by it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the value for key, or ports.ErrCacheMiss when the key is
// absent or expired. Expired entries are deleted lazily here and in bulk by
// Sweep.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Recheck under the write lock; Set may have refreshed the entry.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
			metrics.TravelTimeCacheEvictions.Inc()
		}
		c.mu.Unlock()
		return nil, ports.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value with a TTL in seconds. Non-positive TTLs store nothing.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		return nil
	}
	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	c.mu.Unlock()
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all expired entries and returns how many were evicted.
func (c *Cache) Sweep() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.TravelTimeCacheEvictions.Add(float64(evicted))
	}
	return evicted
}

// StartSweep runs Sweep at the given interval until ctx is done.
func (c *Cache) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
