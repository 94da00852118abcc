package clock

import (
	"context"
	"math"
	"sync"
	"time"
)

// Realtime fires callbacks against the wall clock. Callbacks only run
// inside Run, one at a time, so callback code never races with itself.
//
// With a speed factor, Now reports timeline time: it advances speed times
// faster than the wall clock from the moment the clock was created.
type Realtime struct {
	mu     sync.Mutex
	base   time.Time
	origin time.Time
	speed  float64
	seq    uint64
	q      queue
	wake   chan struct{}
	now    func() time.Time
}

var _ Scheduler = (*Realtime)(nil)

// RealtimeOption configures a Realtime clock.
type RealtimeOption func(*Realtime)

// WithSpeed compresses the timeline by factor: with a factor of 2 a
// callback scheduled at 10s fires after 5s of wall time. Non-positive
// factors are ignored.
func WithSpeed(factor float64) RealtimeOption {
	return func(r *Realtime) {
		if factor > 0 {
			r.speed = factor
		}
	}
}

// WithTimeSource overrides time.Now.
func WithTimeSource(now func() time.Time) RealtimeOption {
	return func(r *Realtime) {
		r.now = now
	}
}

// NewRealtime returns a wall-clock scheduler. Call Run to start firing.
func NewRealtime(opts ...RealtimeOption) *Realtime {
	r := &Realtime{
		speed: 1,
		wake:  make(chan struct{}, 1),
		now:   time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	r.base = r.now()
	r.origin = r.base
	return r
}

func (r *Realtime) Now() time.Time {
	return r.base.Add(r.scaleUp(r.now().Sub(r.base)))
}

func (r *Realtime) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scaleUp(r.now().Sub(r.origin))
}

func (r *Realtime) ScheduleAt(offset time.Duration, fn func()) {
	r.mu.Lock()
	r.push(r.origin.Add(r.scaleDown(offset)), fn)
	r.mu.Unlock()
	r.notify()
}

func (r *Realtime) After(d time.Duration, fn func()) {
	r.mu.Lock()
	r.push(r.now().Add(r.scaleDown(d)), fn)
	r.mu.Unlock()
	r.notify()
}

func (r *Realtime) Restart() {
	r.mu.Lock()
	r.origin = r.now()
	r.q.clear()
	r.mu.Unlock()
	r.notify()
}

func (r *Realtime) CancelAll() {
	r.mu.Lock()
	r.q.clear()
	r.mu.Unlock()
	r.notify()
}

// Run fires callbacks as they fall due until ctx is done. Timers that wake
// together still fire their callbacks one by one in queue order.
func (r *Realtime) Run(ctx context.Context) error {
	for {
		r.mu.Lock()
		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		if e := r.q.next(); e != nil {
			wait := e.due.Sub(r.now())
			if wait <= 0 {
				r.q.take()
				r.mu.Unlock()
				e.fn()
				continue
			}
			timer = time.NewTimer(wait)
			fire = timer.C
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-r.wake:
		case <-fire:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (r *Realtime) push(due time.Time, fn func()) {
	r.seq++
	r.q.add(&entry{due: due, seq: r.seq, fn: fn})
}

func (r *Realtime) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// scaleDown rounds up so that a callback never fires before Now has
// advanced by the full scheduled duration.
func (r *Realtime) scaleDown(d time.Duration) time.Duration {
	return time.Duration(math.Ceil(float64(d) / r.speed))
}

func (r *Realtime) scaleUp(d time.Duration) time.Duration {
	return time.Duration(float64(d) * r.speed)
}
