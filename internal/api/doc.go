// Package api implements the pulse HTTP status API and WebSocket event stream.
//
// This package provides:
//   - Health and status endpoints backed by the client's role snapshots
//   - A publish endpoint that sends one payload through the publisher link
//   - Read access to the message journal
//   - A WebSocket hub that relays role events to connected clients
//   - The Prometheus scrape endpoint
//   - Middleware stack (request ID, logging, recovery, body limit)
//
// # Architecture
//
// The Hub implements pubsub.Observer. It is registered with the client
// alongside the other observers, so every state transition and received
// message is broadcast to WebSocket clients subscribed to the matching
// event type. Broadcasts never block the event loop; slow clients lose
// events instead.
//
// # Graceful Degradation
//
// The journal is optional. Without it the journal endpoints return 503 and
// everything else keeps working.
package api
