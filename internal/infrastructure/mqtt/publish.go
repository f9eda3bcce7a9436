package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish hands a message for channel to paho and returns without waiting
// for the broker acknowledgment.
//
// Messages use the configured QoS and are never retained. A delivery that
// later fails or times out is logged.
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrPublishFailed (oversized
//     payload) or ErrNotConnected; nil once the message is queued
func (c *Connection) Publish(channel string, payload []byte) error {
	// Validate inputs
	if channel == "" {
		return ErrInvalidTopic
	}
	if c.cfg.QoS < 0 || c.cfg.QoS > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	client, _, ok := c.current()
	if !ok {
		return ErrNotConnected
	}

	token := client.Publish(channel, byte(c.cfg.QoS), false, payload)
	go c.awaitDelivery(channel, token)
	return nil
}

// awaitDelivery logs a publish the broker never acknowledged.
func (c *Connection) awaitDelivery(channel string, token pahomqtt.Token) {
	if err := waitToken(token, defaultPublishTimeout); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT publish not acknowledged",
				"topic", channel,
				"error", err,
			)
		}
	}
}
