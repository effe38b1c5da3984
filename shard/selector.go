package shard

import "hash/maphash"

/*
This file decides HOW a key is assigned to a shard.
If every request went to the same shard, that shard's lock would become a bottleneck.
*/

/*
Selector is the interface that decides which shard should handle a given key.
The cache does not care HOW this decision is made. Different strategies can be plugged in.
*/
type Selector[K comparable] interface {
	// Select returns a shard index in [0, n).
	Select(key K, n int) int
}

// HashSelector spreads keys by hashing them with a per-cache random seed.
type HashSelector[K comparable] struct {
	seed maphash.Seed
}

// NewHashSelector returns a HashSelector with a fresh seed.
func NewHashSelector[K comparable]() *HashSelector[K] {
	return &HashSelector[K]{seed: maphash.MakeSeed()}
}

// Select chooses the shard for a given key.
func (s *HashSelector[K]) Select(key K, n int) int {
	if n <= 1 {
		return 0
	}
	return int(maphash.Comparable(s.seed, key) % uint64(n))
}
