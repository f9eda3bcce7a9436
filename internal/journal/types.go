package journal

import (
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// Query limits.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// MessageEntry is a stored received message.
type MessageEntry struct {
	ID         int64     `json:"id"`
	Channel    string    `json:"channel"`
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// Transition is a stored role state change.
type Transition struct {
	ID   int64        `json:"id"`
	Role pubsub.Role  `json:"role"`
	From pubsub.State `json:"from"`
	To   pubsub.State `json:"to"`
	At   time.Time    `json:"at"`
}

// Failure is a stored failed connect attempt.
type Failure struct {
	ID      int64       `json:"id"`
	Role    pubsub.Role `json:"role"`
	Attempt uint64      `json:"attempt"`
	Error   string      `json:"error"`
	At      time.Time   `json:"at"`
}

// PruneResult counts rows removed by Prune.
type PruneResult struct {
	Messages    int64 `json:"messages"`
	Transitions int64 `json:"transitions"`
	Failures    int64 `json:"failures"`
}

// Total returns the number of rows removed.
func (p PruneResult) Total() int64 {
	return p.Messages + p.Transitions + p.Failures
}

// clampLimit applies the default and maximum page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
