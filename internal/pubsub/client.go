package pubsub

import (
	"fmt"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-pulse/internal/eventloop"
)

// Options holds the dependencies for creating a Client.
type Options struct {
	// Config is shared by both roles.
	Config Config

	// Loop runs every role event. The caller owns Loop.Run.
	Loop *eventloop.Loop

	// PublisherConn and SubscriberConn must be distinct links.
	PublisherConn  Connection
	SubscriberConn Connection

	// Observer is optional. Use Observers to attach several.
	Observer Observer

	// Logger is optional.
	Logger Logger
}

// Client composes one publisher and one subscriber against the same broker.
type Client struct {
	loop       *eventloop.Loop
	channel    string
	publisher  *publisher
	subscriber *subscriber
	stopped    atomic.Bool
}

// New creates a client. Call Start to begin connecting.
//
// Parameters:
//   - opts: Configuration, loop and one Connection per role
//
// Returns:
//   - *Client: Client in the Idle state
//   - error: ErrInvalidConfig if a dependency is missing or the config is invalid
func New(opts Options) (*Client, error) {
	if opts.Loop == nil {
		return nil, fmt.Errorf("%w: loop is required", ErrInvalidConfig)
	}
	if opts.PublisherConn == nil || opts.SubscriberConn == nil {
		return nil, fmt.Errorf("%w: publisher and subscriber connections are required", ErrInvalidConfig)
	}
	if opts.PublisherConn == opts.SubscriberConn {
		return nil, fmt.Errorf("%w: roles need separate connections", ErrInvalidConfig)
	}

	cfg := opts.Config
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &Client{
		loop:       opts.Loop,
		channel:    cfg.Channel,
		publisher:  newPublisher(cfg, opts.PublisherConn, opts.Loop, observer, logger),
		subscriber: newSubscriber(cfg, opts.SubscriberConn, opts.Loop, observer, logger),
	}, nil
}

// Start triggers the first connect attempt of both roles.
// The roles start as separate loop events and never wait on each other.
// Calling Start again has no effect.
func (c *Client) Start() {
	c.loop.Post(c.publisher.start)
	c.loop.Post(c.subscriber.start)
}

// Publish sends message on the configured channel through the publisher link.
//
// Returns:
//   - error: ErrNotConnected while the publisher link is down, ErrStopped
//     after Stop, or ErrPublishFailed wrapping the link error
func (c *Client) Publish(message []byte) error {
	if c.stopped.Load() {
		return ErrStopped
	}
	return c.publisher.send(message)
}

// Stop cancels both roles' timers and disconnects them. The roles move to
// Stopped once the loop processes the request, so Stop must be called
// before the loop's context is cancelled.
func (c *Client) Stop() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	c.loop.Post(c.publisher.stop)
	c.loop.Post(c.subscriber.stop)
}

// Status returns snapshots of both roles. Safe from any goroutine.
func (c *Client) Status() Status {
	return Status{
		Publisher:  c.publisher.status(),
		Subscriber: c.subscriber.status(),
	}
}

// Channel returns the configured channel name.
func (c *Client) Channel() string {
	return c.channel
}
