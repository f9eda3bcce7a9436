package pubsub

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/heartbeat"
)

// Role identifies one of the two broker links.
type Role string

const (
	RolePublisher  Role = "publisher"
	RoleSubscriber Role = "subscriber"
)

// State is the position of a role in its state machine.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"     // publisher only
	StateSubscribed State = "subscribed" // subscriber only
	StateStopped    State = "stopped"
)

// Live reports whether a role in state s has a usable broker link.
func (s State) Live() bool {
	return s == StateActive || s == StateSubscribed
}

// DefaultHeartbeatFormat is the heartbeat template used when Config leaves it empty.
const DefaultHeartbeatFormat = "message %d"

// Config holds the settings shared by both roles.
type Config struct {
	// Address is the broker host name or IP.
	Address string

	// Port is the broker TCP port.
	Port uint16

	// Channel is the channel the publisher writes to and the subscriber reads.
	Channel string

	// RetryDelay is the fixed wait after a failed connect attempt. It is
	// also the heartbeat interval.
	RetryDelay time.Duration

	// HeartbeatFormat is a fmt template with exactly one integer verb for
	// the counter, such as %d or %05d. Empty selects DefaultHeartbeatFormat.
	HeartbeatFormat string
}

func (c *Config) validate() error {
	var errs []string
	if c.Address == "" {
		errs = append(errs, "address is required")
	}
	if c.Port == 0 {
		errs = append(errs, "port is required")
	}
	if c.Channel == "" {
		errs = append(errs, "channel is required")
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, "retry delay must be positive")
	}
	if c.HeartbeatFormat == "" {
		c.HeartbeatFormat = DefaultHeartbeatFormat
	}
	if err := heartbeat.ValidateFormat(c.HeartbeatFormat); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// Message is a payload received by the subscriber.
type Message struct {
	Channel    string    `json:"channel"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// RoleStatus is a point-in-time snapshot of one role.
type RoleStatus struct {
	Role       Role      `json:"role"`
	State      State     `json:"state"`
	Connected  bool      `json:"connected"`
	Since      time.Time `json:"since"`
	Generation uint64    `json:"generation"`
	Attempts   uint64    `json:"attempts"`
	Failures   uint64    `json:"failures"`
	Reconnects uint64    `json:"reconnects"`

	// Publisher only.
	HeartbeatsPublished uint64 `json:"heartbeats_published,omitempty"`
	NextSequence        uint64 `json:"next_sequence,omitempty"`

	// Subscriber only.
	Subscriptions    uint64 `json:"subscriptions,omitempty"`
	MessagesReceived uint64 `json:"messages_received,omitempty"`
}

// Status holds snapshots of both roles.
type Status struct {
	Publisher  RoleStatus `json:"publisher"`
	Subscriber RoleStatus `json:"subscriber"`
}

// Healthy reports whether both links are currently connected.
func (s Status) Healthy() bool {
	return s.Publisher.Connected && s.Subscriber.Connected
}
