package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe registers onMessage for channel and returns immediately.
//
// done is called exactly once from a background goroutine with nil once the
// broker acknowledged the subscription, or ErrSubscribeFailed wrapping the
// cause. Validation failures and ErrNotConnected are reported through done
// as well.
//
// The subscription lives as long as the current session. It is not restored
// after a reconnect, the owner re-issues it.
//
// Parameters:
//   - channel: The topic to subscribe to (MQTT wildcards allowed)
//   - onMessage: Called with the raw payload of each message
//   - done: Completion callback
func (c *Connection) Subscribe(channel string, onMessage func(payload []byte), done func(err error)) {
	if err := c.validateSubscribe(channel, onMessage); err != nil {
		go done(err)
		return
	}

	client, session, ok := c.current()
	if !ok {
		go done(ErrNotConnected)
		return
	}

	token := client.Subscribe(channel, byte(c.cfg.QoS), c.wrapHandler(session, onMessage))
	go func() {
		if err := waitToken(token, defaultPublishTimeout); err != nil {
			done(fmt.Errorf("%w: %w", ErrSubscribeFailed, err))
			return
		}
		done(nil)
	}()
}

func (c *Connection) validateSubscribe(channel string, onMessage func([]byte)) error {
	if channel == "" {
		return ErrInvalidTopic
	}
	if c.cfg.QoS < 0 || c.cfg.QoS > maxQoS {
		return ErrInvalidQoS
	}
	if onMessage == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	return nil
}

// wrapHandler wraps onMessage with panic recovery and drops messages that
// arrive after their session ended.
func (c *Connection) wrapHandler(session uint64, onMessage func([]byte)) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if !c.isSession(session) {
			return
		}
		onMessage(msg.Payload())
	}
}
