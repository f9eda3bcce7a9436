package telemetry

import (
	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// InfluxWriter is the subset of the InfluxDB client the observer needs.
// *influxdb.Client satisfies it.
type InfluxWriter interface {
	WriteHeartbeat(seq uint64, payload []byte)
	WriteStateChange(role, from, to string, connected bool)
	WriteMessage(channel string, payload []byte)
	WriteConnectFailure(role string, attempt uint64, err error)
}

// InfluxObserver turns role events into InfluxDB points. The writer batches
// asynchronously, so calls return immediately.
type InfluxObserver struct {
	w InfluxWriter
}

// NewInfluxObserver creates an observer that writes to w.
func NewInfluxObserver(w InfluxWriter) *InfluxObserver {
	return &InfluxObserver{w: w}
}

func (o *InfluxObserver) StateChanged(role pubsub.Role, from, to pubsub.State) {
	o.w.WriteStateChange(string(role), string(from), string(to), to.Live())
}

func (o *InfluxObserver) ConnectFailed(role pubsub.Role, attempt uint64, err error) {
	o.w.WriteConnectFailure(string(role), attempt, err)
}

func (o *InfluxObserver) HeartbeatPublished(seq uint64, payload []byte) {
	o.w.WriteHeartbeat(seq, payload)
}

func (o *InfluxObserver) MessageReceived(msg pubsub.Message) {
	o.w.WriteMessage(msg.Channel, []byte(msg.Text))
}
