package eventloop

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newManualLoop() (*Loop, *ManualClock) {
	clock := NewManualClock(epoch)
	return New(clock), clock
}

func TestTimer_FiresOnceAfterDelay(t *testing.T) {
	loop, clock := newManualLoop()
	timer := loop.NewTimer()

	var firedAt []time.Time
	timer.ScheduleAfter(time.Second, func() { firedAt = append(firedAt, loop.Now()) })

	if !timer.Pending() {
		t.Fatal("Pending() = false after ScheduleAfter")
	}

	clock.Step(loop, 999*time.Millisecond)
	if len(firedAt) != 0 {
		t.Fatal("timer fired before its deadline")
	}

	clock.Step(loop, 10*time.Second)
	if len(firedAt) != 1 {
		t.Fatalf("timer fired %d times, want 1", len(firedAt))
	}
	if !firedAt[0].Equal(epoch.Add(time.Second)) {
		t.Errorf("fired at %v, want %v", firedAt[0], epoch.Add(time.Second))
	}
	if timer.Pending() {
		t.Error("Pending() = true after fire")
	}
}

func TestTimer_RearmCancelsPrevious(t *testing.T) {
	loop, clock := newManualLoop()
	timer := loop.NewTimer()

	var fired []string
	timer.ScheduleAfter(time.Second, func() { fired = append(fired, "first") })
	timer.ScheduleAfter(2*time.Second, func() { fired = append(fired, "second") })

	if clock.Pending() != 1 {
		t.Errorf("clock has %d pending callbacks, want 1", clock.Pending())
	}

	clock.Step(loop, 5*time.Second)

	if len(fired) != 1 || fired[0] != "second" {
		t.Errorf("fired = %v, want [second]", fired)
	}
}

func TestTimer_CancelPreventsFire(t *testing.T) {
	loop, clock := newManualLoop()
	timer := loop.NewTimer()

	fired := false
	timer.ScheduleAfter(time.Second, func() { fired = true })
	timer.Cancel()

	clock.Step(loop, 5*time.Second)

	if fired {
		t.Error("cancelled timer fired")
	}
	if clock.Pending() != 0 {
		t.Errorf("clock has %d pending callbacks after Cancel, want 0", clock.Pending())
	}
}

func TestTimer_CancelUnarmedIsNoop(t *testing.T) {
	loop, _ := newManualLoop()
	timer := loop.NewTimer()

	timer.Cancel()
	timer.Cancel()

	if timer.Pending() {
		t.Error("Pending() = true on never-armed timer")
	}
}

func TestTimer_QueuedFireDiscardedAfterCancel(t *testing.T) {
	loop, clock := newManualLoop()
	timer := loop.NewTimer()

	fired := false
	timer.ScheduleAfter(time.Second, func() { fired = true })

	// The clock fires and posts to the loop, but the loop has not run yet.
	clock.Advance(time.Second)
	if loop.Len() != 1 {
		t.Fatalf("loop has %d queued events, want 1", loop.Len())
	}

	timer.Cancel()
	loop.Drain()

	if fired {
		t.Error("fire queued before Cancel was executed")
	}
}

func TestTimer_QueuedFireDiscardedAfterRearm(t *testing.T) {
	loop, clock := newManualLoop()
	timer := loop.NewTimer()

	var fired []string
	timer.ScheduleAfter(time.Second, func() { fired = append(fired, "old") })
	clock.Advance(time.Second)

	timer.ScheduleAfter(time.Second, func() { fired = append(fired, "new") })
	loop.Drain()

	if len(fired) != 0 {
		t.Fatalf("fired = %v, want none yet", fired)
	}

	clock.Step(loop, time.Second)
	if len(fired) != 1 || fired[0] != "new" {
		t.Errorf("fired = %v, want [new]", fired)
	}
}

func TestTimer_RearmFromOwnCallback(t *testing.T) {
	loop, clock := newManualLoop()
	timer := loop.NewTimer()

	var ticks []time.Duration
	var tick func()
	tick = func() {
		ticks = append(ticks, loop.Now().Sub(epoch))
		timer.ScheduleAfter(time.Second, tick)
	}
	timer.ScheduleAfter(time.Second, tick)

	clock.Step(loop, 3500*time.Millisecond)

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(ticks) != len(want) {
		t.Fatalf("ticks = %v, want %v", ticks, want)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Errorf("tick %d at %v, want %v", i, ticks[i], want[i])
		}
	}
	if clock.Pending() != 1 {
		t.Errorf("clock has %d pending callbacks, want 1", clock.Pending())
	}
}
