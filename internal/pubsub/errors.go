package pubsub

import "errors"

// Domain-specific errors for the pub/sub client.
var (
	// ErrNotConnected is returned by Publish when the publisher link is down.
	ErrNotConnected = errors.New("pubsub: not connected")

	// ErrPublishFailed is returned when the link rejects a publish.
	ErrPublishFailed = errors.New("pubsub: publish failed")

	// ErrStopped is returned by Publish after the client has been stopped.
	ErrStopped = errors.New("pubsub: client stopped")

	// ErrInvalidConfig is returned by New when the options are unusable.
	ErrInvalidConfig = errors.New("pubsub: invalid configuration")
)
