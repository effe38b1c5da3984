package writepolicy

import (
	"context"
	"fmt"

	"github.com/krisalay/expiring-cache/types"
)

/*
This file defines what a "write policy" is.

A consumer that keeps hot state in an expiring container still has to persist it
somewhere. Different consumers have different needs:
- Some want strong consistency (write-through)
- Some want high performance (write-back)

Instead of hard-coding one behavior, we define an interface so we can plug in different strategies.
*/

/*
WritePolicy is the contract that all write policies must follow.
The consumer does not care which policy is used. It simply calls these methods.
*/
type WritePolicy[K comparable, V any] interface {

	/*
		OnWrite is called whenever the consumer stores a value.
		The returned error reports a failed synchronous write; asynchronous
		policies only fail here when they can no longer accept writes.
	*/
	OnWrite(ctx context.Context, key K, value V) error

	/*
		OnDelete is called whenever the consumer drops a key for good.
		Policies must apply it in order with earlier writes to the same key.
	*/
	OnDelete(ctx context.Context, key K) error

	/*
		Close is called when the consumer is shutting down.
	*/
	Close()
}

// Mode names a write policy in configuration.
type Mode string

const (
	// Through writes to the backing store before OnWrite returns.
	Through Mode = "through"

	// Back queues writes and persists them from a background worker.
	Back Mode = "back"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Through, Back:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("writepolicy: unknown mode %q", s)
	}
}

// New is a small factory: given a Mode, it builds the matching policy over store.
// buffer is only used by write-back.
func New[K comparable, V any](mode Mode, store types.Loader[K, V], buffer int) WritePolicy[K, V] {
	if mode == Back {
		return NewWriteBackPolicy(store, buffer)
	}
	return NewWriteThroughPolicy(store)
}
