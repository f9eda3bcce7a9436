package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/config"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// linkState is the lifecycle of a Connection.
type linkState int

const (
	stateDisconnected linkState = iota
	stateConnecting
	stateConnected
)

// Connection is one broker link with asynchronous connect and subscribe.
//
// Each Connect builds a fresh paho client with its own reconnect logic
// disabled, so the link never heals itself behind its owner's back. Every
// connect opens a new session number; callbacks from an older session
// (connection lost, inbound messages, late connect results) are ignored.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Completion callbacks, message handlers and the error handler run on
//     goroutines owned by this package or by paho. None of them are called
//     with internal locks held.
type Connection struct {
	cfg  config.BrokerConfig
	role string

	mu      sync.Mutex
	client  pahomqtt.Client
	state   linkState
	session uint64
	onError func(err error)

	// logger for delivery failures and handler panics (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// NewConnection creates a disconnected link.
//
// Parameters:
//   - cfg: Broker settings (credentials, TLS, QoS, timeouts, client ID base)
//   - role: Appended to the client ID so the two roles never share a session
func NewConnection(cfg config.BrokerConfig, role string) *Connection {
	return &Connection{
		cfg:  cfg,
		role: role,
	}
}

// Connect starts a connection to address:port and returns immediately.
//
// done is called exactly once from a background goroutine with:
//   - nil once the broker accepted the connection
//   - ErrAlreadyConnected if the link is connecting or connected
//   - ErrConnectionFailed wrapping the transport error
//   - ErrConnectAborted if Disconnect was called before the attempt finished
func (c *Connection) Connect(address string, port uint16, done func(err error)) {
	c.mu.Lock()
	if c.state != stateDisconnected {
		c.mu.Unlock()
		go done(ErrAlreadyConnected)
		return
	}

	c.session++
	session := c.session

	opts := buildClientOptions(c.cfg, address, port, clientID(c.cfg.ClientID, c.role))
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(session, err)
	})
	timeout := opts.ConnectTimeout

	client := pahomqtt.NewClient(opts)
	c.client = client
	c.state = stateConnecting
	c.mu.Unlock()

	token := client.Connect()

	go func() {
		err := waitToken(token, timeout+time.Second)

		c.mu.Lock()
		if c.session != session {
			c.mu.Unlock()
			if err == nil {
				client.Disconnect(0)
			}
			done(ErrConnectAborted)
			return
		}
		if err != nil {
			c.state = stateDisconnected
			c.client = nil
			c.mu.Unlock()
			done(fmt.Errorf("%w: %w", ErrConnectionFailed, err))
			return
		}
		c.state = stateConnected
		c.mu.Unlock()
		done(nil)
	}()
}

// Disconnect tears the link down and returns without waiting for paho.
//
// It is a no-op on a disconnected link and never invokes the error handler.
// An attempt still in flight reports ErrConnectAborted.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.state == stateDisconnected {
		c.mu.Unlock()
		return
	}
	client := c.client
	wasConnected := c.state == stateConnected
	c.client = nil
	c.state = stateDisconnected
	c.session++
	c.mu.Unlock()

	if wasConnected && client != nil {
		go client.Disconnect(defaultDisconnectQuiesce)
	}
}

// IsConnected reports whether the link is up.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateConnected && c.client != nil && c.client.IsConnectionOpen()
}

// SetErrorHandler installs the callback for transport errors on a connected
// link. The error wraps ErrConnectionLost.
func (c *Connection) SetErrorHandler(handler func(err error)) {
	c.mu.Lock()
	c.onError = handler
	c.mu.Unlock()
}

// SetLogger sets a logger for delivery failures and handler panics.
func (c *Connection) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// HealthCheck verifies the link is connected.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Connection) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// handleConnectionLost reports a dropped link for the current session only.
func (c *Connection) handleConnectionLost(session uint64, err error) {
	c.mu.Lock()
	if c.session != session || c.state != stateConnected {
		c.mu.Unlock()
		return
	}
	c.state = stateDisconnected
	c.client = nil
	handler := c.onError
	c.mu.Unlock()

	if handler != nil {
		handler(fmt.Errorf("%w: %w", ErrConnectionLost, err))
	}
}

// current returns the paho client and session if connected and the
// network connection is still open.
func (c *Connection) current() (pahomqtt.Client, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateConnected || c.client == nil || !c.client.IsConnectionOpen() {
		return nil, 0, false
	}
	return c.client, c.session, true
}

// isSession reports whether session is still the live one.
func (c *Connection) isSession(session uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == session && c.state == stateConnected
}

// getLogger returns the current logger (may be nil).
func (c *Connection) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// waitToken waits for a paho token with a timeout.
func waitToken(token pahomqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	return token.Error()
}
