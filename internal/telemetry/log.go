package telemetry

import (
	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// LogObserver writes role events to a structured logger. Transitions and
// failures log at Info/Warn; per-message events log at Debug.
type LogObserver struct {
	log pubsub.Logger
}

// NewLogObserver creates an observer that logs to log.
func NewLogObserver(log pubsub.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) StateChanged(role pubsub.Role, from, to pubsub.State) {
	o.log.Info("role state changed", "role", role, "from", from, "to", to)
}

func (o *LogObserver) ConnectFailed(role pubsub.Role, attempt uint64, err error) {
	o.log.Warn("connect attempt failed", "role", role, "attempt", attempt, "error", err)
}

func (o *LogObserver) HeartbeatPublished(seq uint64, payload []byte) {
	o.log.Debug("heartbeat published", "seq", seq, "payload", string(payload))
}

// MessageReceived prints the payload, which is the subscriber's primary output.
func (o *LogObserver) MessageReceived(msg pubsub.Message) {
	o.log.Info("message received", "channel", msg.Channel, "text", msg.Text)
}
