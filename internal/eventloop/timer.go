package eventloop

import "time"

// Timer is a cancellable one-shot delayed call bound to a Loop.
//
// At most one callback is pending per Timer: arming it again cancels the
// previous arming. The callback runs on the loop, exactly once, unless the
// timer is cancelled or re-armed first.
//
// A Timer is owned by loop handlers. Its methods are not safe for use from
// other goroutines.
type Timer struct {
	loop *Loop

	// seq identifies the current arming. A fire that was already queued on
	// the loop when the timer was cancelled or re-armed carries an old seq
	// and is discarded.
	seq     uint64
	pending bool
	stop    func() bool
}

// ScheduleAfter arms the timer to call fn after d, cancelling any pending arming.
func (t *Timer) ScheduleAfter(d time.Duration, fn func()) {
	t.Cancel()

	t.seq++
	seq := t.seq
	t.pending = true
	t.stop = t.loop.clock.AfterFunc(d, func() {
		t.loop.Post(func() {
			if !t.pending || t.seq != seq {
				return
			}
			t.pending = false
			t.stop = nil
			fn()
		})
	})
}

// Cancel disarms the timer. It is a no-op on an unarmed timer.
func (t *Timer) Cancel() {
	if !t.pending {
		return
	}
	t.pending = false
	t.seq++
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

// Pending reports whether a callback is armed and has not fired yet.
func (t *Timer) Pending() bool {
	return t.pending
}
