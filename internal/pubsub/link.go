package pubsub

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/eventloop"
)

// link is the connect/retry machinery shared by both roles.
//
// Every field below snap is owned by the event loop. The hooks are set by
// the role that embeds the link.
type link struct {
	role     Role
	cfg      Config
	conn     Connection
	loop     *eventloop.Loop
	retry    *eventloop.Timer
	observer Observer
	logger   Logger

	// liveState is the state in which a transport error triggers a reconnect.
	liveState State

	// onConnected runs after a connect attempt for the current generation
	// succeeds. It must move the link into liveState.
	onConnected func()

	// onReset cancels role-specific work before the link is torn down.
	onReset func()

	// fill adds role-specific counters to a status snapshot.
	fill func(s *RoleStatus)

	state      State
	since      time.Time
	generation uint64
	attempts   uint64
	failures   uint64
	reconnects uint64

	snap statusCell
}

func newLink(role Role, live State, cfg Config, conn Connection, loop *eventloop.Loop, observer Observer, logger Logger) *link {
	l := &link{
		role:        role,
		cfg:         cfg,
		conn:        conn,
		loop:        loop,
		retry:       loop.NewTimer(),
		observer:    observer,
		logger:      logger,
		liveState:   live,
		onConnected: func() {},
		onReset:     func() {},
		fill:        func(*RoleStatus) {},
		state:       StateIdle,
		since:       loop.Now(),
	}
	l.sync()

	conn.SetErrorHandler(func(err error) {
		l.loop.Post(func() { l.handleError(err) })
	})
	return l
}

// start makes the first connect attempt. Only an idle link can start.
func (l *link) start() {
	if l.state != StateIdle {
		return
	}
	l.connect()
}

// connect begins a new connect attempt under a fresh generation.
func (l *link) connect() {
	if l.state == StateStopped {
		return
	}

	if l.conn.IsConnected() {
		l.logger.Debug("link still reports connected, disconnecting first",
			"role", l.role,
			"generation", l.generation,
		)
		l.onReset()
		l.conn.Disconnect()
	}

	l.generation++
	l.attempts++
	gen := l.generation
	l.setState(StateConnecting)
	l.sync()

	l.logger.Debug("connecting",
		"role", l.role,
		"address", l.cfg.Address,
		"port", l.cfg.Port,
		"attempt", l.attempts,
		"generation", gen,
	)

	l.conn.Connect(l.cfg.Address, l.cfg.Port, func(err error) {
		l.loop.Post(func() { l.connectDone(gen, err) })
	})
}

func (l *link) connectDone(gen uint64, err error) {
	if gen != l.generation || l.state != StateConnecting {
		l.logger.Debug("discarding stale connect completion",
			"role", l.role,
			"generation", gen,
			"current", l.generation,
			"state", l.state,
		)
		return
	}

	if err != nil {
		l.fail(err)
		return
	}

	l.logger.Info("connected",
		"role", l.role,
		"address", l.cfg.Address,
		"port", l.cfg.Port,
		"attempt", l.attempts,
	)
	l.onConnected()
	l.sync()
}

// fail records a failed attempt and schedules the next one after the fixed delay.
func (l *link) fail(err error) {
	l.failures++
	l.setState(StateConnecting)
	l.observer.ConnectFailed(l.role, l.attempts, err)
	l.logger.Warn("connect attempt failed, retrying",
		"role", l.role,
		"attempt", l.attempts,
		"retry_in", l.cfg.RetryDelay,
		"error", err,
	)
	l.retry.ScheduleAfter(l.cfg.RetryDelay, l.connect)
	l.sync()
}

// handleError reacts to a transport error. Outside the live state the
// in-flight attempt reports its own outcome, so the error is ignored.
func (l *link) handleError(err error) {
	if l.state != l.liveState {
		l.logger.Debug("ignoring transport error",
			"role", l.role,
			"state", l.state,
			"error", err,
		)
		return
	}

	l.reconnects++
	l.logger.Warn("connection lost, reconnecting",
		"role", l.role,
		"error", err,
	)
	l.onReset()
	l.retry.Cancel()
	l.connect()
}

func (l *link) stop() {
	if l.state == StateStopped {
		return
	}
	l.generation++
	l.retry.Cancel()
	l.onReset()
	l.conn.Disconnect()
	l.setState(StateStopped)
	l.sync()
	l.logger.Info("stopped", "role", l.role)
}

func (l *link) setState(to State) {
	from := l.state
	if from == to {
		return
	}
	l.state = to
	l.since = l.loop.Now()
	l.observer.StateChanged(l.role, from, to)
}

// sync publishes the loop-owned fields for readers on other goroutines.
func (l *link) sync() {
	s := RoleStatus{
		Role:       l.role,
		State:      l.state,
		Since:      l.since,
		Generation: l.generation,
		Attempts:   l.attempts,
		Failures:   l.failures,
		Reconnects: l.reconnects,
	}
	l.fill(&s)
	l.snap.store(s)
}

// status returns the latest snapshot. Safe from any goroutine.
func (l *link) status() RoleStatus {
	s := l.snap.load()
	s.Connected = l.conn.IsConnected()
	return s
}

// statusCell guards the last published snapshot of a link.
type statusCell struct {
	mu sync.RWMutex
	s  RoleStatus
}

func (c *statusCell) store(s RoleStatus) {
	c.mu.Lock()
	c.s = s
	c.mu.Unlock()
}

func (c *statusCell) load() RoleStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s
}
