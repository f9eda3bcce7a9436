// Package eventloop provides the single-threaded dispatcher that drives the
// reconnecting publisher and subscriber.
//
// Every connect completion, timer fire, error notification and inbound message
// is posted to a Loop and executed one at a time on the goroutine running
// Loop.Run. Handlers therefore never run concurrently with each other and the
// state they own needs no locks.
//
// # Components
//
//   - Loop: unbounded FIFO of events, dispatched with panic recovery
//   - Timer: cancellable one-shot delayed call that fires on the loop
//   - Clock: time source; SystemClock for production, ManualClock for
//     deterministic tests and simulations
//
// # Usage
//
//	loop := eventloop.New(eventloop.SystemClock())
//	go loop.Run(ctx)
//
//	retry := loop.NewTimer()
//	loop.Post(func() {
//	    retry.ScheduleAfter(time.Second, reconnect)
//	})
//
// Timer methods must only be called from handlers running on the loop.
//
// # Simulated time
//
// Tests drive a loop without starting Run:
//
//	clock := eventloop.NewManualClock(time.Unix(0, 0))
//	loop := eventloop.New(clock)
//	loop.Post(start)
//	loop.Drain()
//	clock.Step(loop, 3*time.Second) // fires due timers in order, draining after each
package eventloop
