package eviction

import "time"

/*
This file defines what the cache keeps around to decide WHEN a key may be evicted.

Every Insert and every successful Get leaves an access Record behind. Records are
never updated in place: touching a key again simply adds another Record, so the
same key can appear many times. Old copies are "ghosts" and are reconciled
against the entry table only when cleanup reaches them.
*/

// Record is one (timestamp, key) access record.
type Record[K comparable] struct {
	// At is the access time this record was queued with.
	At time.Time

	// Key is the key that was accessed.
	Key K
}
