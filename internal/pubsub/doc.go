// Package pubsub implements the self-healing publish/subscribe client.
//
// A Client owns two independent broker links, one per Role:
//
//   - Publisher: connects, then emits a heartbeat ("message 0", "message 1", …)
//     every retry delay for as long as the link is up
//   - Subscriber: connects, then subscribes to the configured channel and
//     forwards every inbound payload to the observers
//
// Either link that fails to connect is retried after the same fixed delay,
// forever. A transport error on a live link triggers an immediate reconnect.
// The roles never look at each other, so a broker outage is detected and
// recovered once per role.
//
// # State machines
//
//	Publisher:  Idle → Connecting → Active     → (error) → Connecting → …
//	Subscriber: Idle → Connecting → Subscribed → (error) → Connecting → …
//
// Both roles move to Stopped on Client.Stop.
//
// # Threading
//
// All role state lives on an eventloop.Loop. Connection callbacks arrive on
// arbitrary goroutines and are posted to the loop before they touch any
// state. Every connect attempt carries a generation number and a completion
// for an attempt that has since been superseded is dropped.
//
// Client.Publish and Client.Status are safe to call from any goroutine.
//
// # Usage
//
//	loop := eventloop.New(eventloop.SystemClock())
//	client, err := pubsub.New(pubsub.Options{
//	    Config:         pubsub.Config{Address: "127.0.0.1", Port: 1883, Channel: "pulse/heartbeat", RetryDelay: time.Second},
//	    Loop:           loop,
//	    PublisherConn:  pubConn,
//	    SubscriberConn: subConn,
//	})
//	client.Start()
//	go loop.Run(ctx)
package pubsub
