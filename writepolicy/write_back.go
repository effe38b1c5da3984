package writepolicy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/krisalay/expiring-cache/types"
)

// This file implements the "write-back" policy.

var (
	// ErrClosed is returned by OnWrite and OnDelete after Close.
	ErrClosed = errors.New("writepolicy: closed")

	// ErrQueueFull is returned by OnWrite when the write-back queue has no room.
	// The write was not queued.
	ErrQueueFull = errors.New("writepolicy: write-back queue full")
)

// writeReq represents one pending write operation that needs to be sent to the backing store.
type writeReq[K comparable, V any] struct {
	ctx   context.Context
	key   K
	value V

	// del marks a delete; value is ignored.
	del bool

	// done, if set, receives the store result once the request is applied.
	done chan error
}

/*
WriteBackPolicy manages asynchronous writes to the backing store.
*/
type WriteBackPolicy[K comparable, V any] struct {

	// store is the backing store (DB, API, etc.)
	store types.Loader[K, V]

	// ch is a buffered channel that holds pending write requests.
	// Buffering absorbs bursts of writes without blocking the caller.
	ch chan writeReq[K, V]

	// mu guards closed so OnWrite never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	// wg is used to wait for the worker to finish during shutdown.
	wg sync.WaitGroup
}

// NewWriteBackPolicy creates a new write-back policy and starts its worker.
// A buffer below 1 is treated as 1.
func NewWriteBackPolicy[K comparable, V any](store types.Loader[K, V], buffer int) *WriteBackPolicy[K, V] {
	if buffer < 1 {
		buffer = 1
	}
	w := &WriteBackPolicy[K, V]{
		store: store,
		ch:    make(chan writeReq[K, V], buffer),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

/*
OnWrite queues the write and returns immediately.
If the queue is full the write is not queued and OnWrite returns ErrQueueFull;
the caller decides whether to retry or give up.
*/
func (w *WriteBackPolicy[K, V]) OnWrite(ctx context.Context, key K, value V) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}

	// The worker outlives the request, so keep values but drop cancellation.
	select {
	case w.ch <- writeReq[K, V]{ctx: context.WithoutCancel(ctx), key: key, value: value}:
		return nil
	default:
		slog.Error("writepolicy: write-back queue full, write not queued", "key", key)
		return ErrQueueFull
	}
}

/*
OnDelete queues a delete behind any pending writes for the same key and waits
until the worker has applied it, so a read of the backing store that starts
after OnDelete returns no longer sees the key.

If ctx ends first OnDelete returns ctx.Err(); a delete that was already queued
is still applied.
*/
func (w *WriteBackPolicy[K, V]) OnDelete(ctx context.Context, key K) error {
	done := make(chan error, 1)
	if err := w.enqueueDelete(ctx, key, done); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueueDelete holds the read lock only while sending, so Close is not held
// up by callers waiting for their delete.
func (w *WriteBackPolicy[K, V]) enqueueDelete(ctx context.Context, key K, done chan error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}

	select {
	case w.ch <- writeReq[K, V]{ctx: context.WithoutCancel(ctx), key: key, del: true, done: done}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker drains the queue into the backing store. This is where eventual consistency happens.
func (w *WriteBackPolicy[K, V]) worker() {
	defer w.wg.Done()

	for req := range w.ch {
		if req.del {
			err := w.store.Delete(req.ctx, req.key)
			if err != nil {
				slog.Error("writepolicy: write-back delete failed", "key", req.key, "err", err)
				err = fmt.Errorf("writepolicy: delete %v: %w", req.key, err)
			}
			if req.done != nil {
				req.done <- err
			}
			continue
		}
		if err := w.store.Put(req.ctx, req.key, req.value); err != nil {
			slog.Error("writepolicy: write-back failed", "key", req.key, "err", err)
		}
	}
}

/*
Close shuts down the write-back policy gracefully.
------------------
1. Stop accepting writes
2. Close the channel
3. Wait for the worker to finish processing queued writes

Close is safe to call more than once.
*/
func (w *WriteBackPolicy[K, V]) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	w.wg.Wait()
}
