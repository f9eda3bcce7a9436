package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// Recorder defaults.
const (
	defaultBufferSize    = 256
	defaultPruneInterval = time.Hour
	writeTimeout         = 5 * time.Second
)

// Logger defines the logging interface for the recorder.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// RecorderConfig holds the settings for a Recorder.
type RecorderConfig struct {
	// Repository receives the writes. Required.
	Repository Repository

	// BufferSize is the queue length between the loop and the writer.
	BufferSize int

	// Retention is how long rows are kept. Zero disables pruning.
	Retention time.Duration

	// PruneInterval is how often old rows are pruned. Default one hour.
	PruneInterval time.Duration

	// Now stamps transitions and failures. Default time.Now.
	Now func() time.Time

	// Logger is optional.
	Logger Logger
}

// Recorder is a pubsub.Observer that journals events in the background.
type Recorder struct {
	repo          Repository
	retention     time.Duration
	pruneInterval time.Duration
	now           func() time.Time
	logger        Logger

	writes  chan func(ctx context.Context) error
	dropped atomic.Uint64
	closed  atomic.Bool

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewRecorder creates a recorder. Call Start to launch the writer.
func NewRecorder(cfg RecorderConfig) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = defaultPruneInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	return &Recorder{
		repo:          cfg.Repository,
		retention:     cfg.Retention,
		pruneInterval: cfg.PruneInterval,
		now:           cfg.Now,
		logger:        cfg.Logger,
		writes:        make(chan func(ctx context.Context) error, cfg.BufferSize),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the writer goroutine. It stops when ctx is cancelled or
// Close is called. Calling Start twice has no effect.
func (r *Recorder) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.run(ctx)
}

// Close stops accepting events, flushes what is queued and waits for the
// writer to finish.
func (r *Recorder) Close() error {
	r.closed.Store(true)
	r.stopOnce.Do(func() { close(r.quit) })
	if r.started.Load() {
		<-r.done
	}
	return nil
}

// Dropped returns how many events were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Prune removes rows older than the retention window.
//
// Returns:
//   - PruneResult: Rows removed (zero when retention is disabled)
//   - error: nil on success, otherwise the repository error
func (r *Recorder) Prune(ctx context.Context) (PruneResult, error) {
	if r.retention <= 0 {
		return PruneResult{}, nil
	}
	return r.repo.Prune(ctx, r.now().Add(-r.retention))
}

// StateChanged journals a role transition.
func (r *Recorder) StateChanged(role pubsub.Role, from, to pubsub.State) {
	t := Transition{Role: role, From: from, To: to, At: r.now()}
	r.enqueue(func(ctx context.Context) error {
		return r.repo.InsertTransition(ctx, t)
	})
}

// ConnectFailed journals a failed attempt.
func (r *Recorder) ConnectFailed(role pubsub.Role, attempt uint64, err error) {
	f := Failure{Role: role, Attempt: attempt, Error: err.Error(), At: r.now()}
	r.enqueue(func(ctx context.Context) error {
		return r.repo.InsertFailure(ctx, f)
	})
}

// HeartbeatPublished is not journalled; the subscriber records the echo.
func (r *Recorder) HeartbeatPublished(uint64, []byte) {}

// MessageReceived journals an inbound message.
func (r *Recorder) MessageReceived(msg pubsub.Message) {
	r.enqueue(func(ctx context.Context) error {
		return r.repo.InsertMessage(ctx, msg)
	})
}

// enqueue never blocks; the event loop calls it.
func (r *Recorder) enqueue(write func(ctx context.Context) error) {
	if r.closed.Load() {
		r.dropped.Add(1)
		return
	}
	select {
	case r.writes <- write:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.logger.Warn("journal queue full, dropping events", "dropped", n)
		}
	}
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)

	var prune <-chan time.Time
	if r.retention > 0 {
		ticker := time.NewTicker(r.pruneInterval)
		defer ticker.Stop()
		prune = ticker.C
	}

	for {
		select {
		case write := <-r.writes:
			r.exec(write)
		case <-prune:
			r.pruneLogged()
		case <-r.quit:
			r.flush()
			return
		case <-ctx.Done():
			r.flush()
			return
		}
	}
}

// flush writes whatever is still queued.
func (r *Recorder) flush() {
	for {
		select {
		case write := <-r.writes:
			r.exec(write)
		default:
			return
		}
	}
}

func (r *Recorder) exec(write func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		r.logger.Error("journal write failed", "error", err)
	}
}

func (r *Recorder) pruneLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	res, err := r.Prune(ctx)
	if err != nil {
		r.logger.Error("journal prune failed", "error", err)
		return
	}
	if res.Total() > 0 {
		r.logger.Info("journal pruned",
			"messages", res.Messages,
			"transitions", res.Transitions,
			"failures", res.Failures,
		)
	}
}
