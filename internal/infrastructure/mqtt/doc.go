// Package mqtt provides the MQTT broker link used by the pulse roles.
//
// This package manages:
//   - Asynchronous connect with completion callbacks
//   - Fire-and-forget publishing with logged delivery failures
//   - Asynchronous subscriptions with panic-safe message handlers
//   - Connection-lost notification through a single error handler
//
// # Architecture
//
// A Connection implements pubsub.Connection. It deliberately does not heal
// itself: paho auto-reconnect is off and subscriptions are not tracked, so
// the publisher and subscriber state machines stay the only place where
// retry timing and re-subscription happen.
//
//	pubsub.Client ─┬─ publisher  ─ mqtt.Connection ─┐
//	               └─ subscriber ─ mqtt.Connection ─┴─ Mosquitto
//
// Each Connect opens a new session. Late results from older sessions
// (connection lost, messages, connect completions) are discarded.
//
// # Security Considerations
//
//   - TLS is available via broker.tls (minimum TLS 1.2)
//   - Credentials come from broker.username / broker.password or the
//     PULSE_BROKER_USERNAME / PULSE_BROKER_PASSWORD environment variables
//   - Anonymous access is only for local development
//
// # Usage
//
//	conn := mqtt.NewConnection(cfg.Broker, "publisher")
//	conn.SetErrorHandler(func(err error) { log.Print(err) })
//	conn.Connect("127.0.0.1", 1883, func(err error) {
//	    if err != nil {
//	        log.Print(err)
//	        return
//	    }
//	    _ = conn.Publish("pulse/heartbeat", []byte("message 0"))
//	})
package mqtt
