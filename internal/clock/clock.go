// Package clock schedules callbacks at offsets from the start of a run.
//
// Two drivers share one ordering discipline: callbacks fire in increasing
// due time, and callbacks due at the same instant fire in the order they
// were scheduled. Virtual is advanced explicitly and is what tests use;
// Realtime follows the wall clock from a single loop goroutine.
package clock

import (
	"container/heap"
	"time"
)

// Scheduler registers callbacks against a run-relative timeline.
type Scheduler interface {
	// Now returns the current time of the clock.
	Now() time.Time
	// Elapsed returns the time since the last Restart.
	Elapsed() time.Duration
	// ScheduleAt fires fn once Elapsed reaches offset.
	ScheduleAt(offset time.Duration, fn func())
	// After fires fn d after the current time.
	After(d time.Duration, fn func())
	// Restart moves the origin to now and drops every pending callback.
	Restart()
	// CancelAll drops every pending callback.
	CancelAll()
}

type entry struct {
	due time.Time
	seq uint64
	fn  func()
}

// queue is a min-heap ordered by due time, then by scheduling order.
type queue []*entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(*entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

func (q *queue) add(e *entry) { heap.Push(q, e) }

func (q *queue) next() *entry {
	if len(*q) == 0 {
		return nil
	}
	return (*q)[0]
}

func (q *queue) take() *entry { return heap.Pop(q).(*entry) }

func (q *queue) clear() { *q = nil }
