// This file implements the freshness index.

package eviction

import (
	"container/heap"
	"time"
)

// records is the heap storage. It satisfies heap.Interface and is ordered by
// access time, earliest first.
type records[K comparable] []Record[K]

func (r records[K]) Len() int { return len(r) }

// Less orders by time only. Ties are broken arbitrarily.
func (r records[K]) Less(i, j int) bool { return r[i].At.Before(r[j].At) }

func (r records[K]) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

func (r *records[K]) Push(x any) { *r = append(*r, x.(Record[K])) }

func (r *records[K]) Pop() any {
	old := *r
	n := len(old)
	rec := old[n-1]
	var zero Record[K]
	old[n-1] = zero // drop the key reference
	*r = old[:n-1]
	return rec
}

/*
Index is the freshness index: a min-heap of access records.

- Push is O(log n) and never deduplicates
- Peek is O(1)
- Pop is O(log n)

Index is NOT safe for concurrent use. The container owning it serializes access.
*/
type Index[K comparable] struct {
	h records[K]
}

// NewIndex returns an empty index.
func NewIndex[K comparable]() *Index[K] {
	return &Index[K]{}
}

// Push queues an access record for key at time at.
func (x *Index[K]) Push(at time.Time, key K) {
	heap.Push(&x.h, Record[K]{At: at, Key: key})
}

// Peek returns the earliest record without removing it.
func (x *Index[K]) Peek() (Record[K], bool) {
	if len(x.h) == 0 {
		return Record[K]{}, false
	}
	return x.h[0], true
}

// Pop removes and returns the earliest record.
func (x *Index[K]) Pop() (Record[K], bool) {
	if len(x.h) == 0 {
		return Record[K]{}, false
	}
	return heap.Pop(&x.h).(Record[K]), true
}

// Len returns the number of queued records, ghosts included.
func (x *Index[K]) Len() int {
	return len(x.h)
}
