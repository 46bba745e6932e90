package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// entry is a cached value with the time it was stored
type entry[V any] struct {
	Value     V
	Timestamp time.Time
}

// TTL is a concurrency-safe cache whose entries expire after a fixed age.
type TTL[V any] struct {
	ttl     time.Duration
	entries sync.Map
	now     func() time.Time
}

// NewTTL creates a cache; a non-positive ttl disables expiry.
func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{ttl: ttl, now: time.Now}
}

// Get returns the value for key if present and fresh.
func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.entries.Load(key)
	if !ok {
		return zero, false
	}
	e := val.(entry[V])
	if c.ttl > 0 && c.now().Sub(e.Timestamp) > c.ttl {
		c.entries.Delete(key)
		return zero, false
	}
	return e.Value, true
}

// Put stores value under key.
func (c *TTL[V]) Put(key string, value V) {
	c.entries.Store(key, entry[V]{Value: value, Timestamp: c.now()})
}

func (c *TTL[V]) Invalidate(key string) {
	c.entries.Delete(key)
}

// Key hashes parts into a cache key so secrets such as tokens are never
// held as map keys.
func Key(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
