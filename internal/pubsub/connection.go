package pubsub

// Connection is a single logical link to the broker.
//
// Implementations must be safe for concurrent use. Completion callbacks,
// message handlers and the error handler may be invoked on any goroutine;
// the roles marshal them onto their event loop.
type Connection interface {
	// Connect starts connecting to address:port and returns immediately.
	// done is called exactly once with the outcome. Connecting a link that is
	// already connected must report an error through done.
	Connect(address string, port uint16, done func(err error))

	// Disconnect tears the link down. It is a no-op when already
	// disconnected and never invokes the error handler.
	Disconnect()

	// IsConnected reports whether the link is currently connected.
	IsConnected() bool

	// Publish sends payload to channel. It fails when the link is down,
	// either with an error wrapping ErrNotConnected or with IsConnected
	// reporting false afterwards.
	Publish(channel string, payload []byte) error

	// Subscribe registers onMessage for channel and returns immediately.
	// done is called exactly once with the outcome. onMessage receives raw
	// payloads for as long as the link stays up.
	Subscribe(channel string, onMessage func(payload []byte), done func(err error))

	// SetErrorHandler installs the single callback for transport errors
	// after a successful connect. Installing a new handler replaces the old one.
	SetErrorHandler(handler func(err error))
}
