package shard

import "sync"

/*
A shard is a small, independent piece of a concurrent cache.
Instead of having one big container and one big lock, we split keys across many
shards. Each shard:
- Holds some portion of the data in its own container
- Has its own lock

The containers themselves do no locking at all, so Mu must be held for the
whole duration of every call into Map.
*/
type Shard[M any] struct {

	// Mu guards Map.
	Mu sync.Mutex

	// Map is the single-caller container owned by this shard.
	Map M
}

// New wraps m in a shard.
func New[M any](m M) *Shard[M] {
	return &Shard[M]{Map: m}
}

// Do runs fn with the shard locked.
func (s *Shard[M]) Do(fn func(M)) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	fn(s.Map)
}
