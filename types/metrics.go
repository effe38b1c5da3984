package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when Get finds a live key.
	Hit()

	// Miss is called when Get does NOT find the key.
	Miss()

	// Expire is called when cleanup removes a key whose last access is past the deadline.
	Expire()

	// Requeue is called when cleanup pops a stale access record for a key that was
	// touched again later and pushes the key back with its current timestamp.
	Requeue()

	// Discard is called when cleanup pops a record for a key that was already removed.
	Discard()
}

/*
NoopMetrics is the "do nothing" implementation of Metrics.
The engine falls back to it when no collector is configured, so the container
never has to nil-check before reporting an event.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()     {}
func (NoopMetrics) Miss()    {}
func (NoopMetrics) Expire()  {}
func (NoopMetrics) Requeue() {}
func (NoopMetrics) Discard() {}
