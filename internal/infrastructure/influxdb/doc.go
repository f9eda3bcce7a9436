// Package influxdb provides InfluxDB connectivity for pulse telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, health checks and a handful of typed writers for the events
// the publisher and subscriber roles produce.
//
// # Measurements
//
//   - pulse_heartbeat: one point per published heartbeat (seq, bytes)
//   - pulse_state: one point per role state transition
//   - pulse_message: one point per received message (bytes)
//   - pulse_connect_failure: one point per failed connect attempt
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteHeartbeat(7, []byte("message 7"))
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; write errors arrive
// asynchronously through the SetOnError callback.
package influxdb
