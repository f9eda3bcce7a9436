package eventloop

import (
	"sync"
	"time"
)

// Clock is the time source behind Loop timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls fn on an arbitrary goroutine once d has elapsed.
	// The returned stop function prevents the call if it has not happened
	// yet and reports whether it did so.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// systemClock is the wall clock.
type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// ManualClock is a Clock that only moves when told to.
//
// Callbacks fire synchronously from FireNext, Advance or Step, in deadline
// order (ties in arming order). It is safe for concurrent use.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	nextID  uint64
	waiters []*waiter
}

type waiter struct {
	id uint64
	at time.Time
	fn func()
}

// NewManualClock creates a manual clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the simulated time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers fn to run once the simulated time reaches now+d.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	c.nextID++
	w := &waiter{id: c.nextID, at: c.now.Add(d), fn: fn}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, other := range c.waiters {
			if other == w {
				c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Pending returns the number of registered callbacks that have not fired
// or been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// NextDeadline returns the earliest pending deadline.
func (c *ManualClock) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.earliest()
	if w == nil {
		return time.Time{}, false
	}
	return w.at, true
}

// FireNext fires the earliest callback due at or before limit, moving the
// clock to its deadline.
//
// Returns:
//   - bool: false if nothing was due
func (c *ManualClock) FireNext(limit time.Time) bool {
	c.mu.Lock()
	w := c.earliest()
	if w == nil || w.at.After(limit) {
		c.mu.Unlock()
		return false
	}
	for i, other := range c.waiters {
		if other == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}
	if w.at.After(c.now) {
		c.now = w.at
	}
	c.mu.Unlock()

	w.fn()
	return true
}

// Advance moves the clock forward by d, firing every callback that becomes due.
func (c *ManualClock) Advance(d time.Duration) {
	target := c.Now().Add(d)
	for c.FireNext(target) {
	}
	c.moveTo(target)
}

// Step advances the clock by d on behalf of loop l.
//
// l is drained before the first fire and after each one, so timers armed by
// handlers during the step fire too if they fall inside the window.
func (c *ManualClock) Step(l *Loop, d time.Duration) {
	target := c.Now().Add(d)
	l.Drain()
	for c.FireNext(target) {
		l.Drain()
	}
	c.moveTo(target)
}

func (c *ManualClock) moveTo(t time.Time) {
	c.mu.Lock()
	if t.After(c.now) {
		c.now = t
	}
	c.mu.Unlock()
}

// earliest returns the next waiter to fire. Caller holds c.mu.
func (c *ManualClock) earliest() *waiter {
	var best *waiter
	for _, w := range c.waiters {
		if best == nil || w.at.Before(best.at) || (w.at.Equal(best.at) && w.id < best.id) {
			best = w
		}
	}
	return best
}
