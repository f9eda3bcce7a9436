package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-pulse/internal/journal"
	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// PulseClient is the part of *pubsub.Client the server uses.
type PulseClient interface {
	Status() pubsub.Status
	Channel() string
	Publish(payload []byte) error
}

// JournalReader is the read side of the message journal.
type JournalReader interface {
	RecentMessages(ctx context.Context, limit int) ([]journal.MessageEntry, error)
	RecentTransitions(ctx context.Context, limit int) ([]journal.Transition, error)
	RecentFailures(ctx context.Context, limit int) ([]journal.Failure, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Client   PulseClient
	Journal  JournalReader       // optional
	Gatherer prometheus.Gatherer // optional, defaults to prometheus.DefaultGatherer
	Hub      *Hub                // optional; register it as an observer before starting the client
	Version  string
}

// Server is the HTTP API server for pulse.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	client   PulseClient
	journal  JournalReader
	gatherer prometheus.Gatherer
	version  string

	server    *http.Server
	listener  net.Listener
	hub       *Hub
	startTime time.Time
	cancel    context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, client)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	hub := deps.Hub
	if hub == nil {
		hub = NewHub(deps.Config.WebSocket, deps.Logger)
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		client:    deps.Client,
		journal:   deps.Journal,
		gatherer:  gatherer,
		version:   deps.Version,
		hub:       hub,
		startTime: time.Now(),
	}, nil
}

// Hub returns the WebSocket hub so it can be registered as an observer.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listener and serves HTTP in a background goroutine.
//
// Parameters:
//   - ctx: Parent context for the hub; Close stops it independently
//
// Returns:
//   - error: If the listener cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("binding API listener: %w", err)
	}
	s.listener = ln

	s.logger.Info("API server listening", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
