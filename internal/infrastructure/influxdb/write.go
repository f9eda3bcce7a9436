package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementHeartbeat      = "pulse_heartbeat"
	MeasurementState          = "pulse_state"
	MeasurementMessage        = "pulse_message"
	MeasurementConnectFailure = "pulse_connect_failure"
)

// WriteHeartbeat records a published heartbeat.
//
// Parameters:
//   - seq: Counter value carried by the heartbeat
//   - payload: The bytes that were published
func (c *Client) WriteHeartbeat(seq uint64, payload []byte) {
	c.WritePoint(MeasurementHeartbeat,
		map[string]string{"role": "publisher"},
		map[string]interface{}{
			"seq":   int64(seq), //nolint:gosec // heartbeat counts never approach MaxInt64
			"bytes": len(payload),
		},
	)
}

// WriteStateChange records a role state transition.
//
// Parameters:
//   - role: "publisher" or "subscriber"
//   - from, to: State names before and after the transition
//   - connected: Whether the role is live after the transition
func (c *Client) WriteStateChange(role, from, to string, connected bool) {
	c.WritePoint(MeasurementState,
		map[string]string{"role": role, "state": to},
		map[string]interface{}{
			"from":      from,
			"connected": connected,
		},
	)
}

// WriteMessage records a received message on channel.
func (c *Client) WriteMessage(channel string, payload []byte) {
	c.WritePoint(MeasurementMessage,
		map[string]string{"channel": channel},
		map[string]interface{}{"bytes": len(payload)},
	)
}

// WriteConnectFailure records a failed connect attempt.
func (c *Client) WriteConnectFailure(role string, attempt uint64, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.WritePoint(MeasurementConnectFailure,
		map[string]string{"role": role},
		map[string]interface{}{
			"attempt": int64(attempt), //nolint:gosec // attempt counts never approach MaxInt64
			"error":   msg,
		},
	)
}

// WritePoint writes a custom point stamped with the current time.
// Dropped silently when the client is not connected.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, c.now())
	c.writeAPI.WritePoint(point)
}
