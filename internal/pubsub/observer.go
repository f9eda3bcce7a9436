package pubsub

// Observer receives role events. All methods are called on the event loop
// goroutine, in the order the events happened, and must not block.
type Observer interface {
	// StateChanged is called on every state transition.
	StateChanged(role Role, from, to State)

	// ConnectFailed is called when a connect (or the subscriber's follow-up
	// subscribe) attempt fails. attempt counts from 1 over the process lifetime.
	ConnectFailed(role Role, attempt uint64, err error)

	// HeartbeatPublished is called after each successful heartbeat publish.
	HeartbeatPublished(seq uint64, payload []byte)

	// MessageReceived is called for every inbound message on the channel.
	MessageReceived(msg Message)
}

// NopObserver ignores every event. Embed it to implement only part of Observer.
type NopObserver struct{}

func (NopObserver) StateChanged(Role, State, State)   {}
func (NopObserver) ConnectFailed(Role, uint64, error) {}
func (NopObserver) HeartbeatPublished(uint64, []byte) {}
func (NopObserver) MessageReceived(Message)           {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) StateChanged(role Role, from, to State) {
	for _, obs := range o {
		obs.StateChanged(role, from, to)
	}
}

func (o Observers) ConnectFailed(role Role, attempt uint64, err error) {
	for _, obs := range o {
		obs.ConnectFailed(role, attempt, err)
	}
}

func (o Observers) HeartbeatPublished(seq uint64, payload []byte) {
	for _, obs := range o {
		obs.HeartbeatPublished(seq, payload)
	}
}

func (o Observers) MessageReceived(msg Message) {
	for _, obs := range o {
		obs.MessageReceived(msg)
	}
}
