package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected link.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrAlreadyConnected is reported when Connect is called on a link that
	// is connecting or connected.
	ErrAlreadyConnected = errors.New("mqtt: already connected")

	// ErrConnectionFailed is returned when a connect attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrConnectAborted is reported when Disconnect supersedes an in-flight connect.
	ErrConnectAborted = errors.New("mqtt: connect aborted")

	// ErrConnectionLost wraps the transport error passed to the error handler.
	ErrConnectionLost = errors.New("mqtt: connection lost")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty or invalid topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
