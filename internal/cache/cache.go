// This file implements the result cache used for expensive collaborator
// calls (text extraction, AI analysis). Entries are content-addressed,
// TTL-bound, and bounded in number. Concurrent requests for the same key
// are coalesced so the factory runs at most once at a time per key.

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Factory computes the value for a key on a cache miss.
type Factory func(ctx context.Context) (any, error)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL-bound, single-flight deduplicated result cache with a fixed
// entry ceiling. Expiry is checked at read time; expired entries are dropped
// on the next lookup or by Sweep. Factory failures are never stored.
type Cache struct {
	entries *lru.Cache[string, entry]
	group   singleflight.Group
	now     func() time.Time // overridable in tests
}

// New creates a cache holding at most maxEntries live values. Older values
// are evicted LRU-first once the ceiling is reached.
func New(maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache: maxEntries must be positive, got %d", maxEntries)
	}
	entries, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, now: time.Now}, nil
}

// Key derives a cache key from raw content and an operation tag. The same
// bytes requested for two different operations never share an entry.
func Key(content []byte, operation string) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]) + ":" + operation
}

// KeyForDigest builds a key from an already-computed content digest.
func KeyForDigest(digest, operation string) string {
	return digest + ":" + operation
}

// GetOrCreate returns the live value for key, or invokes factory to compute
// it. Among concurrent callers with the same key exactly one runs the
// factory; the rest wait and share its outcome. A factory error is returned
// to every waiter and nothing is cached, so the next call recomputes.
func (c *Cache) GetOrCreate(ctx context.Context, key string, ttl time.Duration, factory Factory) (any, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under single-flight: another caller may have just
		// stored the value between our lookup and this invocation.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// get returns a live value, removing the entry if it has expired.
func (c *Cache) get(key string) (any, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Contains reports whether a live entry exists without touching recency.
func (c *Cache) Contains(key string) bool {
	e, ok := c.entries.Peek(key)
	return ok && !c.now().After(e.expiresAt)
}

// Len returns the number of stored entries, expired ones included until the
// next lookup or sweep removes them.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Sweep removes expired entries eagerly. Correctness never depends on it;
// the maintenance scheduler calls it to release memory earlier.
func (c *Cache) Sweep() int {
	removed := 0
	for _, key := range c.entries.Keys() {
		if e, ok := c.entries.Peek(key); ok && c.now().After(e.expiresAt) {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Purge()
}
