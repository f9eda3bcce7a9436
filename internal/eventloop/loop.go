package eventloop

import (
	"context"
	"sync"
	"time"
)

// Logger defines the logging interface for the loop.
type Logger interface {
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Loop serialises event handlers onto a single goroutine.
//
// Post may be called from any goroutine and never blocks. Handlers run in
// the order they were posted.
type Loop struct {
	clock  Clock
	logger Logger

	mu      sync.Mutex
	queue   []func()
	running bool
	stopped bool

	wake chan struct{}
}

// New creates a loop using the given clock for timers.
// A nil clock selects SystemClock.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock()
	}
	return &Loop{
		clock:  clock,
		logger: noopLogger{},
		wake:   make(chan struct{}, 1),
	}
}

// SetLogger sets the logger used to report recovered handler panics.
func (l *Loop) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// Now returns the current time according to the loop's clock.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// NewTimer creates a timer whose callbacks fire on this loop.
func (l *Loop) NewTimer() *Timer {
	return &Timer{loop: l}
}

// Post enqueues fn for execution on the loop.
//
// Returns false (and drops fn) once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run dispatches events until ctx is cancelled.
//
// Events already queued when ctx is cancelled are still executed, so work
// posted just before shutdown (for example a Stop request) is not lost.
// After Run returns the loop rejects further posts.
//
// Returns:
//   - error: ErrAlreadyRunning if another Run is active, otherwise nil
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()

	for {
		l.Drain()

		select {
		case <-ctx.Done():
			l.shutdown()
			return nil
		case <-l.wake:
		}
	}
}

// shutdown marks the loop stopped and runs whatever was still queued.
func (l *Loop) shutdown() {
	l.mu.Lock()
	l.stopped = true
	remaining := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range remaining {
		l.dispatch(fn)
	}
}

// Drain executes queued events on the calling goroutine until the queue is
// empty, including events posted by the handlers themselves.
//
// Drain is what Run uses internally. Tests call it directly to drive a loop
// deterministically; it must never be called concurrently with Run.
//
// Returns:
//   - int: Number of events executed
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.dispatch(fn)
		n++
	}
}

// Len returns the number of queued events.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// dispatch runs a single handler, recovering panics so one bad handler
// cannot take down the loop.
func (l *Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event handler panic recovered", "panic", r)
		}
	}()
	fn()
}
