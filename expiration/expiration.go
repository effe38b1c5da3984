// This file defines how cache entries expire over time.

package expiration

import "time"

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
the deadline arithmetic into the container, we define a strategy so the rule can be swapped easily.
*/
type Strategy interface {

	// Deadline returns the cut-off instant for now. Any entry whose last access is
	// at or before the deadline is expired.
	Deadline(now time.Time) time.Time
}
