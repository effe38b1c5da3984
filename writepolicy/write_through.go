package writepolicy

import (
	"context"
	"fmt"

	"github.com/krisalay/expiring-cache/types"
)

/*
This file implements the "write-through" policy.

Whenever the consumer writes data, the same data is immediately written to the backing store.

So the flow is: Cache write → DB write (synchronous)
*/

// WriteThroughPolicy forwards every write to the backing store and waits for it.
type WriteThroughPolicy[K comparable, V any] struct {

	// store is the backing store where data must be persisted immediately.
	store types.Loader[K, V]
}

// NewWriteThroughPolicy creates a new write-through policy.
func NewWriteThroughPolicy[K comparable, V any](store types.Loader[K, V]) *WriteThroughPolicy[K, V] {
	return &WriteThroughPolicy[K, V]{store: store}
}

/*
OnWrite writes the value to the backing store.
  - This call is synchronous
  - If the backing store is slow, writes become slow
  - A store failure is returned to the caller
*/
func (w *WriteThroughPolicy[K, V]) OnWrite(ctx context.Context, key K, value V) error {
	if err := w.store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("writepolicy: write-through %v: %w", key, err)
	}
	return nil
}

// OnDelete removes key from the backing store synchronously.
func (w *WriteThroughPolicy[K, V]) OnDelete(ctx context.Context, key K) error {
	if err := w.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("writepolicy: delete-through %v: %w", key, err)
	}
	return nil
}

// Close has nothing to release: write-through runs no background workers.
func (w *WriteThroughPolicy[K, V]) Close() {}
