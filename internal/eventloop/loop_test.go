package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingLogger captures Error calls.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingLogger) Error(msg string, _ ...any) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// =============================================================================
// Drain Tests
// =============================================================================

func TestDrain_RunsInPostOrder(t *testing.T) {
	loop := New(NewManualClock(time.Unix(0, 0)))

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}

	if n := loop.Drain(); n != 5 {
		t.Errorf("Drain() = %d, want 5", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("events ran out of order: %v", got)
		}
	}
	if loop.Len() != 0 {
		t.Errorf("Len() = %d after Drain, want 0", loop.Len())
	}
}

func TestDrain_RunsEventsPostedByHandlers(t *testing.T) {
	loop := New(nil)

	var order []string
	loop.Post(func() {
		order = append(order, "first")
		loop.Post(func() { order = append(order, "nested") })
	})
	loop.Post(func() { order = append(order, "second") })

	loop.Drain()

	want := []string{"first", "second", "nested"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDrain_RecoversPanics(t *testing.T) {
	loop := New(nil)
	logger := &recordingLogger{}
	loop.SetLogger(logger)

	ran := false
	loop.Post(func() { panic("boom") })
	loop.Post(func() { ran = true })

	loop.Drain()

	if !ran {
		t.Error("handler after a panicking handler did not run")
	}
	if logger.count() != 1 {
		t.Errorf("logged %d errors, want 1", logger.count())
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestRun_DispatchesAndStops(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	got := make(chan string, 1)
	if !loop.Post(func() { got <- "hello" }) {
		t.Fatal("Post() = false on running loop")
	}

	select {
	case v := <-got:
		if v != "hello" {
			t.Errorf("got %q, want hello", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not dispatched")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if loop.Post(func() {}) {
		t.Error("Post() = true after loop stopped")
	}
}

func TestRun_ExecutesQueuedEventsOnShutdown(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{})
	loop.Post(func() { close(ran) })
	cancel()

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	select {
	case <-ran:
	default:
		t.Error("event queued before cancel was not executed")
	}
}

func TestRun_AlreadyRunning(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		loop.Post(func() { close(started) })
		_ = loop.Run(ctx)
	}()
	<-started

	if err := loop.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRun_TimerFiresOnSystemClock(t *testing.T) {
	loop := New(SystemClock())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx) //nolint:errcheck // Test loop

	fired := make(chan struct{})
	timer := loop.NewTimer()
	loop.Post(func() {
		timer.ScheduleAfter(10*time.Millisecond, func() { close(fired) })
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire on system clock")
	}
}
