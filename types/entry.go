package types

import "time"

// Entry is the value side of the entry table: one per live key.
// LastAccessedAt is the authoritative freshness of the key.
type Entry[V any] struct {
	Value          V
	LastAccessedAt time.Time
}
