package expiration

import (
	"time"
)

/*
ExpireAfterAccess implements "expire after access", also called a sliding TTL.
Every read or write pushes the entry's expiration forward. As long as the data keeps
getting used, it stays alive. If nobody touches it for TTL, it expires.
*/
type ExpireAfterAccess struct {

	// TTL is how long an entry stays valid after its last access.
	TTL time.Duration

	// Origin is the earliest instant the owning container has observed. No access
	// can be stamped before it, so no deadline needs to reach further back.
	Origin time.Time
}

// NewExpireAfterAccess returns a sliding TTL strategy anchored at origin.
// A negative ttl is treated as zero.
func NewExpireAfterAccess(ttl time.Duration, origin time.Time) *ExpireAfterAccess {
	if ttl < 0 {
		ttl = 0
	}
	return &ExpireAfterAccess{TTL: ttl, Origin: origin}
}

/*
Deadline returns now - TTL.

When less than TTL has elapsed since Origin the subtraction would point before
anything the container could have stamped. In that case the deadline saturates to
the zero time.Time, the earliest representable instant, and nothing is expired yet.
*/
func (e *ExpireAfterAccess) Deadline(now time.Time) time.Time {
	if e.TTL <= 0 {
		return now
	}
	if now.Sub(e.Origin) < e.TTL {
		return time.Time{}
	}
	return now.Add(-e.TTL)
}

// IsExpired reports whether an entry last touched at lastAccess is past deadline.
func IsExpired(lastAccess, deadline time.Time) bool {
	return !lastAccess.After(deadline)
}
