package store

import (
	"time"

	"github.com/krisalay/expiring-cache/types"
)

/*
This file defines the entry table: the single source of truth for
"is this key live, and when was it last touched".

- Reads and writes are expected O(1)
- There is exactly one Entry per live key
- Nothing here knows about deadlines; the container decides what is expired
*/

// Table is the interface the container uses to store and retrieve entries.
type Table[K comparable, V any] interface {

	// Put inserts or replaces the entry for key, stamping it with now.
	// It returns the value it replaced, if any.
	Put(key K, value V, now time.Time) (V, bool)

	// Touch looks key up and, on a hit, refreshes its last access to now.
	Touch(key K, now time.Time) (V, bool)

	// LastAccess looks key up without refreshing it.
	LastAccess(key K) (time.Time, bool)

	// Delete removes key and returns its value.
	Delete(key K) (V, bool)

	// Size returns how many entries are stored.
	Size() int
}

// mapTable is a Table backed by a plain Go map. It is not safe for concurrent use.
type mapTable[K comparable, V any] struct {
	data map[K]*types.Entry[V]
}

// NewMapTable returns an empty map-backed Table.
func NewMapTable[K comparable, V any]() Table[K, V] {
	return &mapTable[K, V]{data: make(map[K]*types.Entry[V])}
}

func (t *mapTable[K, V]) Put(key K, value V, now time.Time) (V, bool) {
	if ent, ok := t.data[key]; ok {
		prev := ent.Value
		ent.Value = value
		ent.LastAccessedAt = now
		return prev, true
	}
	t.data[key] = &types.Entry[V]{Value: value, LastAccessedAt: now}
	var zero V
	return zero, false
}

func (t *mapTable[K, V]) Touch(key K, now time.Time) (V, bool) {
	ent, ok := t.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent.LastAccessedAt = now
	return ent.Value, true
}

func (t *mapTable[K, V]) LastAccess(key K) (time.Time, bool) {
	ent, ok := t.data[key]
	if !ok {
		return time.Time{}, false
	}
	return ent.LastAccessedAt, true
}

func (t *mapTable[K, V]) Delete(key K) (V, bool) {
	ent, ok := t.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(t.data, key)
	return ent.Value, true
}

func (t *mapTable[K, V]) Size() int {
	return len(t.data)
}
