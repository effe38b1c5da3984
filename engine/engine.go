package engine

import (
	"time"

	"github.com/krisalay/expiring-cache/expiration"
	"github.com/krisalay/expiring-cache/types"
)

/*
CacheEngine is the "brain" of the container.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- What time it is
- Where the expiration deadline lies for a given instant
- Where cache events are reported

It does NOT:
- Store data
- Keep the freshness index
- Handle locking
*/
type CacheEngine struct {

	// Expiration turns "now" into an expiration deadline.
	// If this is nil, entries never expire based on time.
	Expiration expiration.Strategy

	// Clock is the source of "now". Tests swap it for a fake clock so they can
	// move time forward without sleeping.
	Clock func() time.Time

	// Metrics is how we keep track of what the container is doing.
	// Hits, misses, expirations, requeued and discarded records.
	Metrics types.Metrics
}

/*
NewCacheEngine creates a CacheEngine.
A nil clock falls back to time.Now and nil metrics fall back to NoopMetrics.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	clock func() time.Time,
	metrics types.Metrics,
) *CacheEngine {
	if clock == nil {
		clock = time.Now
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	return &CacheEngine{
		Expiration: exp,
		Clock:      clock,
		Metrics:    metrics,
	}
}

// Now samples the clock. Callers sample it once per operation.
func (e *CacheEngine) Now() time.Time {
	return e.Clock()
}

/*
Deadline returns the expiration cut-off for now.

Without an expiration strategy the zero time is returned, which nothing can be
at or before, so nothing ever expires.
*/
func (e *CacheEngine) Deadline(now time.Time) time.Time {
	if e.Expiration == nil {
		return time.Time{}
	}
	return e.Expiration.Deadline(now)
}
