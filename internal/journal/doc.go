// Package journal persists what the pulse roles observe to SQLite.
//
// Three tables are written:
//   - messages: every payload the subscriber received
//   - role_transitions: every publisher/subscriber state change
//   - connect_failures: every failed connect or subscribe attempt
//
// Recorder is a pubsub.Observer. Its methods run on the event loop, so they
// only enqueue; a single worker goroutine does the inserts and periodically
// prunes rows older than the retention window. When the queue is full new
// entries are dropped and counted rather than stalling the loop.
package journal
