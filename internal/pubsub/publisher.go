package pubsub

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-pulse/internal/eventloop"
	"github.com/nerrad567/gray-logic-pulse/internal/heartbeat"
)

// publisher is the heartbeat role.
type publisher struct {
	*link

	ticker *eventloop.Timer

	// counter is the next heartbeat sequence. It survives reconnects.
	counter   uint64
	published uint64
}

func newPublisher(cfg Config, conn Connection, loop *eventloop.Loop, observer Observer, logger Logger) *publisher {
	p := &publisher{ticker: loop.NewTimer()}
	p.link = newLink(RolePublisher, StateActive, cfg, conn, loop, observer, logger)
	p.onConnected = p.activate
	p.onReset = p.ticker.Cancel
	p.fill = func(s *RoleStatus) {
		s.HeartbeatsPublished = p.published
		s.NextSequence = p.counter
	}
	return p
}

// activate enters Active and arms the first heartbeat one interval out.
func (p *publisher) activate() {
	p.ticker.Cancel()
	p.setState(StateActive)
	p.ticker.ScheduleAfter(p.cfg.RetryDelay, p.tick)
}

// tick publishes one heartbeat if the link is up and always re-arms.
// A link that dropped without an error event yet is left to the error handler.
func (p *publisher) tick() {
	if p.conn.IsConnected() {
		seq := p.counter
		payload := heartbeat.Render(p.cfg.HeartbeatFormat, seq)
		if err := p.conn.Publish(p.cfg.Channel, payload); err != nil {
			p.logger.Warn("heartbeat publish failed",
				"channel", p.cfg.Channel,
				"sequence", seq,
				"error", err,
			)
		} else {
			// Only heartbeats the link accepted consume a sequence number, so the
			// numbers on the channel never skip.
			p.counter++
			p.published++
			p.observer.HeartbeatPublished(seq, payload)
			p.logger.Debug("heartbeat published",
				"channel", p.cfg.Channel,
				"sequence", seq,
			)
		}
	} else {
		p.logger.Debug("heartbeat skipped, link down", "sequence", p.counter)
	}

	p.ticker.ScheduleAfter(p.cfg.RetryDelay, p.tick)
	p.sync()
}

// send publishes an application message on the configured channel.
// Safe from any goroutine.
func (p *publisher) send(payload []byte) error {
	if !p.conn.IsConnected() {
		return ErrNotConnected
	}
	if err := p.conn.Publish(p.cfg.Channel, payload); err != nil {
		// The link may drop between the check above and the publish.
		if errors.Is(err, ErrNotConnected) || !p.conn.IsConnected() {
			return fmt.Errorf("%w: %w", ErrNotConnected, err)
		}
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
