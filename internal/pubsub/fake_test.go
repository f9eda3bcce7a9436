package pubsub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/eventloop"
)

var (
	errRefused  = errors.New("connection refused")
	errLinkDown = errors.New("fake: not connected")
	errDropped  = errors.New("connection reset by peer")
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type connectCall struct {
	address string
	port    uint16
	at      time.Time
	done    func(error)
}

type subscribeCall struct {
	channel   string
	at        time.Time
	onMessage func([]byte)
	done      func(error)
}

type publishCall struct {
	channel string
	payload string
	at      time.Time
}

// fakeConn is an in-memory Connection driven by the test.
type fakeConn struct {
	mu  sync.Mutex
	now func() time.Time

	// connectResult decides each Connect outcome synchronously. attempt
	// counts from 1. When nil, attempts stay pending until completeConnect.
	connectResult func(attempt int) error

	// subscribeResult decides each Subscribe outcome synchronously.
	// When nil, subscriptions succeed.
	subscribeResult func(call int) error

	// publishErr makes Publish fail on a live link. dropOnPublish takes
	// the link down inside Publish, as a broker closing mid-call would.
	publishErr    error
	dropOnPublish bool

	connected   bool
	connects    []connectCall
	subscribes  []subscribeCall
	active      []func([]byte)
	published   []publishCall
	disconnects int
	errHandler  func(error)
}

func newFakeConn(now func() time.Time) *fakeConn {
	return &fakeConn{now: now}
}

func (f *fakeConn) Connect(address string, port uint16, done func(err error)) {
	f.mu.Lock()
	if f.connected {
		f.mu.Unlock()
		done(errors.New("fake: already connected"))
		return
	}
	f.connects = append(f.connects, connectCall{address: address, port: port, at: f.now(), done: done})
	result := f.connectResult
	attempt := len(f.connects)
	if result == nil {
		f.mu.Unlock()
		return
	}
	err := result(attempt)
	if err == nil {
		f.connected = true
	}
	f.mu.Unlock()
	done(err)
}

func (f *fakeConn) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return
	}
	f.connected = false
	f.active = nil
	f.disconnects++
}

func (f *fakeConn) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConn) Publish(channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dropOnPublish {
		f.connected = false
		f.active = nil
	}
	if !f.connected {
		return errLinkDown
	}
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishCall{channel: channel, payload: string(payload), at: f.now()})
	return nil
}

func (f *fakeConn) Subscribe(channel string, onMessage func(payload []byte), done func(err error)) {
	f.mu.Lock()
	f.subscribes = append(f.subscribes, subscribeCall{channel: channel, at: f.now(), onMessage: onMessage, done: done})
	var err error
	if f.subscribeResult != nil {
		err = f.subscribeResult(len(f.subscribes))
	}
	if err == nil {
		f.active = append(f.active, onMessage)
	}
	f.mu.Unlock()
	done(err)
}

func (f *fakeConn) SetErrorHandler(handler func(err error)) {
	f.mu.Lock()
	f.errHandler = handler
	f.mu.Unlock()
}

// completeConnect finishes pending attempt i (0-based) with err.
func (f *fakeConn) completeConnect(i int, err error) {
	f.mu.Lock()
	done := f.connects[i].done
	if err == nil {
		f.connected = true
	}
	f.mu.Unlock()
	done(err)
}

// drop simulates the broker killing the link and reports it.
func (f *fakeConn) drop(err error) {
	f.mu.Lock()
	f.connected = false
	f.active = nil
	handler := f.errHandler
	f.mu.Unlock()
	handler(err)
}

// flicker marks the link down without reporting an error.
func (f *fakeConn) flicker() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

// deliver pushes payload to every live subscription.
func (f *fakeConn) deliver(payload string) {
	f.mu.Lock()
	handlers := append([]func([]byte){}, f.active...)
	f.mu.Unlock()
	for _, h := range handlers {
		h([]byte(payload))
	}
}

func (f *fakeConn) connectCalls() []connectCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]connectCall(nil), f.connects...)
}

func (f *fakeConn) subscribeCalls() []subscribeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]subscribeCall(nil), f.subscribes...)
}

func (f *fakeConn) publishCalls() []publishCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishCall(nil), f.published...)
}

func (f *fakeConn) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

// alwaysSucceed and alwaysFail are connectResult policies.
func alwaysSucceed(int) error { return nil }
func alwaysFail(int) error    { return errRefused }

// failFirst fails the first n attempts and then succeeds.
func failFirst(n int) func(int) error {
	return func(attempt int) error {
		if attempt <= n {
			return errRefused
		}
		return nil
	}
}

type transition struct {
	role     Role
	from, to State
}

type failure struct {
	role    Role
	attempt uint64
	err     error
}

type heartbeatRecord struct {
	seq     uint64
	payload string
}

// recorder is an Observer that remembers everything.
type recorder struct {
	transitions []transition
	failures    []failure
	heartbeats  []heartbeatRecord
	messages    []Message
}

func (r *recorder) StateChanged(role Role, from, to State) {
	r.transitions = append(r.transitions, transition{role, from, to})
}

func (r *recorder) ConnectFailed(role Role, attempt uint64, err error) {
	r.failures = append(r.failures, failure{role, attempt, err})
}

func (r *recorder) HeartbeatPublished(seq uint64, payload []byte) {
	r.heartbeats = append(r.heartbeats, heartbeatRecord{seq, string(payload)})
}

func (r *recorder) MessageReceived(msg Message) {
	r.messages = append(r.messages, msg)
}

func (r *recorder) transitionsFor(role Role) []transition {
	var out []transition
	for _, tr := range r.transitions {
		if tr.role == role {
			out = append(out, tr)
		}
	}
	return out
}

// harness wires a Client to fakes on a manual clock.
type harness struct {
	clock   *eventloop.ManualClock
	loop    *eventloop.Loop
	pubConn *fakeConn
	subConn *fakeConn
	rec     *recorder
	client  *Client
}

func testConfig() Config {
	return Config{
		Address:    "127.0.0.1",
		Port:       6379,
		Channel:    "unique-redis-channel-name-example",
		RetryDelay: time.Second,
	}
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	clock := eventloop.NewManualClock(epoch)
	loop := eventloop.New(clock)
	h := &harness{
		clock:   clock,
		loop:    loop,
		pubConn: newFakeConn(clock.Now),
		subConn: newFakeConn(clock.Now),
		rec:     &recorder{},
	}

	client, err := New(Options{
		Config:         cfg,
		Loop:           loop,
		PublisherConn:  h.pubConn,
		SubscriberConn: h.subConn,
		Observer:       h.rec,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.client = client
	return h
}

// startAndSettle starts the client and runs the resulting events.
func (h *harness) startAndSettle() {
	h.client.Start()
	h.loop.Drain()
}

func (h *harness) step(d time.Duration) {
	h.clock.Step(h.loop, d)
}

// offsets returns each time relative to epoch.
func offsets(times []time.Time) []time.Duration {
	out := make([]time.Duration, len(times))
	for i, at := range times {
		out[i] = at.Sub(epoch)
	}
	return out
}

func connectTimes(calls []connectCall) []time.Duration {
	times := make([]time.Time, len(calls))
	for i, c := range calls {
		times[i] = c.at
	}
	return offsets(times)
}

func assertDurations(t *testing.T, name string, got, want []time.Duration) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
}
