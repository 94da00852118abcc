package clock

import (
	"sync"
	"time"
)

// Virtual is a simulated clock. Time only moves when Advance or
// AdvanceToIdle is called, and callbacks run on the caller's goroutine.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	origin time.Time
	seq    uint64
	q      queue
}

var _ Scheduler = (*Virtual)(nil)

// NewVirtual returns a virtual clock whose current time is start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start, origin: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) Elapsed() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now.Sub(v.origin)
}

func (v *Virtual) ScheduleAt(offset time.Duration, fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.push(v.origin.Add(offset), fn)
}

func (v *Virtual) After(d time.Duration, fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.push(v.now.Add(d), fn)
}

func (v *Virtual) Restart() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.origin = v.now
	v.q.clear()
}

func (v *Virtual) CancelAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.q.clear()
}

// Pending returns the number of callbacks not yet fired.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.Len()
}

// Advance moves the clock forward by d, firing every callback that falls
// due on the way. Before each callback runs the clock is set to that
// callback's due time. Callbacks scheduled while advancing fire too if they
// fall inside the window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for v.fireNext(target) {
	}

	v.mu.Lock()
	if target.After(v.now) {
		v.now = target
	}
	v.mu.Unlock()
}

// AdvanceToIdle fires callbacks until none are pending and returns the
// number fired.
func (v *Virtual) AdvanceToIdle() int {
	fired := 0
	for v.fireNext(time.Time{}) {
		fired++
	}
	return fired
}

// fireNext pops and runs the earliest callback due no later than limit.
// A zero limit means no limit.
func (v *Virtual) fireNext(limit time.Time) bool {
	v.mu.Lock()
	e := v.q.next()
	if e == nil || (!limit.IsZero() && e.due.After(limit)) {
		v.mu.Unlock()
		return false
	}
	v.q.take()
	if e.due.After(v.now) {
		v.now = e.due
	}
	v.mu.Unlock()

	e.fn()
	return true
}

func (v *Virtual) push(due time.Time, fn func()) {
	v.seq++
	v.q.add(&entry{due: due, seq: v.seq, fn: fn})
}
