package cache

import (
	"time"

	"github.com/krisalay/expiring-cache/types"
)

type options struct {
	clock   func() time.Time
	metrics types.Metrics
}

// Option configures an ExpiringMap or ShardedCache.
type Option func(*options)

// WithClock replaces time.Now as the source of "now".
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMetrics reports hits, misses and cleanup events to m.
// A ShardedCache shares m between its shards, so m must be safe for concurrent use.
func WithMetrics(m types.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, op := range opts {
		op(&o)
	}
	return o
}
