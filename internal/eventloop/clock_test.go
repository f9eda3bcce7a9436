package eventloop

import (
	"testing"
	"time"
)

func TestManualClock_FiresInDeadlineOrder(t *testing.T) {
	clock := NewManualClock(epoch)

	var order []string
	clock.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	clock.AfterFunc(time.Second, func() { order = append(order, "a") })
	clock.AfterFunc(time.Second, func() { order = append(order, "b") })

	clock.Advance(5 * time.Second)

	want := "abc"
	got := ""
	for _, s := range order {
		got += s
	}
	if got != want {
		t.Errorf("fire order = %q, want %q", got, want)
	}
	if !clock.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("Now() = %v, want epoch+5s", clock.Now())
	}
}

func TestManualClock_Stop(t *testing.T) {
	clock := NewManualClock(epoch)

	stop := clock.AfterFunc(time.Second, func() { t.Error("stopped callback fired") })
	if !stop() {
		t.Error("stop() = false for pending callback")
	}
	if stop() {
		t.Error("stop() = true for already stopped callback")
	}

	clock.Advance(2 * time.Second)
}

func TestManualClock_NextDeadline(t *testing.T) {
	clock := NewManualClock(epoch)

	if _, ok := clock.NextDeadline(); ok {
		t.Error("NextDeadline() ok = true with nothing pending")
	}

	clock.AfterFunc(2*time.Second, func() {})
	clock.AfterFunc(time.Second, func() {})

	at, ok := clock.NextDeadline()
	if !ok || !at.Equal(epoch.Add(time.Second)) {
		t.Errorf("NextDeadline() = %v, %v; want epoch+1s, true", at, ok)
	}
}

func TestManualClock_FireNextRespectsLimit(t *testing.T) {
	clock := NewManualClock(epoch)
	clock.AfterFunc(2*time.Second, func() {})

	if clock.FireNext(epoch.Add(time.Second)) {
		t.Error("FireNext() fired a callback past the limit")
	}
	if !clock.FireNext(epoch.Add(2 * time.Second)) {
		t.Error("FireNext() did not fire a due callback")
	}
	if !clock.Now().Equal(epoch.Add(2 * time.Second)) {
		t.Errorf("Now() = %v, want epoch+2s", clock.Now())
	}
}
