package pubsub

import (
	"fmt"

	"github.com/nerrad567/gray-logic-pulse/internal/eventloop"
)

// subscriber is the listening role.
type subscriber struct {
	*link

	subscriptions uint64
	received      uint64
}

func newSubscriber(cfg Config, conn Connection, loop *eventloop.Loop, observer Observer, logger Logger) *subscriber {
	s := &subscriber{}
	s.link = newLink(RoleSubscriber, StateSubscribed, cfg, conn, loop, observer, logger)
	s.onConnected = s.subscribe
	s.fill = func(rs *RoleStatus) {
		rs.Subscriptions = s.subscriptions
		rs.MessagesReceived = s.received
	}
	return s
}

// subscribe enters Subscribed and issues the subscription with no delay.
func (s *subscriber) subscribe() {
	gen := s.generation
	s.setState(StateSubscribed)
	s.subscriptions++

	s.logger.Info("subscribing", "channel", s.cfg.Channel, "generation", gen)

	s.conn.Subscribe(s.cfg.Channel,
		func(payload []byte) {
			s.loop.Post(func() { s.deliver(gen, payload) })
		},
		func(err error) {
			s.loop.Post(func() { s.subscribeDone(gen, err) })
		},
	)
}

// subscribeDone treats a rejected subscription as a failed attempt.
func (s *subscriber) subscribeDone(gen uint64, err error) {
	if gen != s.generation || s.state != StateSubscribed {
		return
	}
	if err != nil {
		s.conn.Disconnect()
		s.fail(fmt.Errorf("subscribe %s: %w", s.cfg.Channel, err))
		return
	}
	s.logger.Info("subscribed", "channel", s.cfg.Channel)
}

func (s *subscriber) deliver(gen uint64, payload []byte) {
	if gen != s.generation || s.state == StateStopped {
		s.logger.Debug("dropping message from previous session", "generation", gen)
		return
	}

	msg := Message{
		Channel:    s.cfg.Channel,
		Text:       string(payload),
		ReceivedAt: s.loop.Now(),
	}
	s.received++
	s.observer.MessageReceived(msg)
	s.sync()
}
