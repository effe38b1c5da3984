package cache

import (
	"time"

	"github.com/krisalay/expiring-cache/api"
	"github.com/krisalay/expiring-cache/engine"
	"github.com/krisalay/expiring-cache/eviction"
	"github.com/krisalay/expiring-cache/expiration"
	"github.com/krisalay/expiring-cache/store"
)

/*
ExpiringMap is a key → value container that forgets entries which have not been
read or written for ttl.

There is no background goroutine. Instead, Insert and Get first run a cleanup
pass that walks the freshness index from its earliest record up to the current
deadline and reconciles each record against the entry table:

- key gone from the table   → the record is an orphan, drop it
- key touched after deadline → the record is a ghost, requeue the key at its real last access
- key untouched since        → the entry is expired, evict it

ExpiringMap does no locking. A single caller must own it for the whole duration
of every call; share it between goroutines only behind a mutex (see ShardedCache).
*/
type ExpiringMap[K comparable, V any] struct {

	// table is the authoritative key → (value, last access) store.
	table store.Table[K, V]

	// index holds access records, earliest first. It may contain ghosts and orphans.
	index *eviction.Index[K]

	// engine supplies the clock, the deadline and the metrics sink.
	engine *engine.CacheEngine

	ttl time.Duration

	// onEvicted, if set, is called for every entry removed by cleanup.
	onEvicted func(key K, value V)
}

// New returns an empty ExpiringMap whose entries expire ttl after their last access.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *ExpiringMap[K, V] {
	o := buildOptions(opts)
	origin := o.clock()

	return &ExpiringMap[K, V]{
		table:  store.NewMapTable[K, V](),
		index:  eviction.NewIndex[K](),
		engine: engine.NewCacheEngine(expiration.NewExpireAfterAccess(ttl, origin), o.clock, o.metrics),
		ttl:    ttl,
	}
}

// SetOnEvicted registers fn to be called for each entry evicted because it expired.
// It is not called for Remove. fn runs inside Insert or Get and must not call back
// into the map.
func (m *ExpiringMap[K, V]) SetOnEvicted(fn func(key K, value V)) {
	m.onEvicted = fn
}

/*
Insert stores value under key and stamps it with the current time.
It returns the value previously stored under key, if there was one.
*/
func (m *ExpiringMap[K, V]) Insert(key K, value V) (V, bool) {
	now := m.engine.Now()
	m.cleanup(now)

	prev, replaced := m.table.Put(key, value, now)
	m.index.Push(now, key)
	return prev, replaced
}

/*
Get returns the value stored under key and refreshes its last access time.
A miss never inserts anything.
*/
func (m *ExpiringMap[K, V]) Get(key K) (V, bool) {
	now := m.engine.Now()
	m.cleanup(now)

	v, ok := m.table.Touch(key, now)
	if !ok {
		m.engine.Metrics.Miss()
		return v, false
	}
	m.engine.Metrics.Hit()
	m.index.Push(now, key)
	return v, true
}

/*
Remove deletes key and returns its value.

The freshness index is left alone: the record queued for key becomes an orphan
and is dropped when cleanup reaches it. Purging it here would need a scan of the
whole index.
*/
func (m *ExpiringMap[K, V]) Remove(key K) (V, bool) {
	return m.table.Delete(key)
}

// Len returns the number of entries held, including expired entries that no
// cleanup pass has reached yet.
func (m *ExpiringMap[K, V]) Len() int {
	return m.table.Size()
}

// TTL returns the configured expiration duration.
func (m *ExpiringMap[K, V]) TTL() time.Duration {
	return m.ttl
}

// cleanup drains every index record at or before the deadline for now.
func (m *ExpiringMap[K, V]) cleanup(now time.Time) {
	deadline := m.engine.Deadline(now)

	for {
		rec, ok := m.index.Peek()
		if !ok || rec.At.After(deadline) {
			return
		}
		m.index.Pop()

		last, ok := m.table.LastAccess(rec.Key)
		switch {
		case !ok:
			m.engine.Metrics.Discard()

		case !expiration.IsExpired(last, deadline):
			// last is after deadline, so this pass will not see the key again.
			m.index.Push(last, rec.Key)
			m.engine.Metrics.Requeue()

		default:
			v, _ := m.table.Delete(rec.Key)
			m.engine.Metrics.Expire()
			if m.onEvicted != nil {
				m.onEvicted(rec.Key, v)
			}
		}
	}
}

var (
	_ api.Map[string, int] = (*ExpiringMap[string, int])(nil)
	_ api.Map[string, int] = (*ShardedCache[string, int])(nil)
)
