package cache

import (
	"time"

	"github.com/krisalay/expiring-cache/shard"
)

/*
ShardedCache is an ExpiringMap that is safe for concurrent use.

Keys are spread over independent shards. Each shard owns one ExpiringMap and a
mutex that is held for the whole of every call, so cleanup in one shard never
blocks callers of another.
*/
type ShardedCache[K comparable, V any] struct {
	// shards are the actual storage units. Each shard is an independent container.
	shards []*shard.Shard[*ExpiringMap[K, V]]

	// selector decides which shard a key should go to.
	selector shard.Selector[K]
}

// NewShardedCache creates a ShardedCache with the given number of shards.
// A shard count below 1 is treated as 1.
func NewShardedCache[K comparable, V any](shards int, ttl time.Duration, opts ...Option) *ShardedCache[K, V] {
	if shards < 1 {
		shards = 1
	}

	s := make([]*shard.Shard[*ExpiringMap[K, V]], shards)
	for i := range s {
		s[i] = shard.New(New[K, V](ttl, opts...))
	}

	return &ShardedCache[K, V]{
		shards:   s,
		selector: shard.NewHashSelector[K](),
	}
}

func (c *ShardedCache[K, V]) shardFor(key K) *shard.Shard[*ExpiringMap[K, V]] {
	return c.shards[c.selector.Select(key, len(c.shards))]
}

// SetOnEvicted registers fn on every shard. fn may run concurrently for keys in
// different shards.
func (c *ShardedCache[K, V]) SetOnEvicted(fn func(key K, value V)) {
	for _, sh := range c.shards {
		sh.Do(func(m *ExpiringMap[K, V]) { m.SetOnEvicted(fn) })
	}
}

// Insert stores value under key and returns the value it replaced, if any.
func (c *ShardedCache[K, V]) Insert(key K, value V) (prev V, replaced bool) {
	c.shardFor(key).Do(func(m *ExpiringMap[K, V]) {
		prev, replaced = m.Insert(key, value)
	})
	return prev, replaced
}

// Get returns the value stored under key and refreshes its last access time.
func (c *ShardedCache[K, V]) Get(key K) (v V, ok bool) {
	c.shardFor(key).Do(func(m *ExpiringMap[K, V]) {
		v, ok = m.Get(key)
	})
	return v, ok
}

// Remove deletes key and returns its value.
func (c *ShardedCache[K, V]) Remove(key K) (v V, ok bool) {
	c.shardFor(key).Do(func(m *ExpiringMap[K, V]) {
		v, ok = m.Remove(key)
	})
	return v, ok
}

// Do runs fn against the container that owns key, with that shard locked for the
// whole call. Use it for read-modify-write sequences that must not interleave
// with other callers. fn must only touch key's shard through m.
func (c *ShardedCache[K, V]) Do(key K, fn func(m *ExpiringMap[K, V])) {
	c.shardFor(key).Do(fn)
}

// Len returns the number of entries held across all shards, including expired
// entries not yet cleaned up.
func (c *ShardedCache[K, V]) Len() int {
	n := 0
	for _, sh := range c.shards {
		sh.Do(func(m *ExpiringMap[K, V]) { n += m.Len() })
	}
	return n
}
