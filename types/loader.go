package types

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Loader when the backing store has no value for a key.
var ErrNotFound = errors.New("not found")

// Loader is the contract between a cache consumer and its backing store.
type Loader[K comparable, V any] interface {

	/*
		Load is called when the cache misses. The key was not found in memory, so the consumer asks the Loader to fetch it.
		1. Consumer checks memory → key not found
		2. Consumer calls Load(key)
		3. Loader fetches from DB/API
		4. Consumer stores the result in memory
		5. Consumer returns the value

		Load returns an error wrapping ErrNotFound when the backing store has nothing for key.
	*/
	Load(ctx context.Context, key K) (V, error)

	/*
		Put is called when the consumer needs to write data back to the backing store.

		This is used by write policies:
		-------------------------------
		- Write-through: write immediately
		- Write-back: write asynchronously later

		This does NOT store data in the cache. It stores data in the backing store (DB/API/etc).
	*/
	Put(ctx context.Context, key K, value V) error

	// Delete removes key from the backing store. Deleting a missing key is not an error.
	Delete(ctx context.Context, key K) error
}
