package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// Repository defines the journal storage operations.
type Repository interface {
	InsertMessage(ctx context.Context, msg pubsub.Message) error
	InsertTransition(ctx context.Context, t Transition) error
	InsertFailure(ctx context.Context, f Failure) error
	RecentMessages(ctx context.Context, limit int) ([]MessageEntry, error)
	RecentTransitions(ctx context.Context, limit int) ([]Transition, error)
	RecentFailures(ctx context.Context, limit int) ([]Failure, error)
	Prune(ctx context.Context, before time.Time) (PruneResult, error)
}

// SQLiteRepository implements Repository on the tables created by the
// journal migrations. Timestamps are stored as unix nanoseconds.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new journal repository.
//
// Parameters:
//   - db: Open SQLite connection with the journal migrations applied
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// InsertMessage stores a received message.
func (r *SQLiteRepository) InsertMessage(ctx context.Context, msg pubsub.Message) error {
	if msg.Channel == "" {
		return errors.New("message channel is required")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (channel, payload, received_at) VALUES (?, ?, ?)`,
		msg.Channel, msg.Text, toNanos(msg.ReceivedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// InsertTransition stores a role state change.
func (r *SQLiteRepository) InsertTransition(ctx context.Context, t Transition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO role_transitions (role, from_state, to_state, at) VALUES (?, ?, ?, ?)`,
		string(t.Role), string(t.From), string(t.To), toNanos(t.At),
	)
	if err != nil {
		return fmt.Errorf("inserting transition: %w", err)
	}
	return nil
}

// InsertFailure stores a failed connect attempt.
func (r *SQLiteRepository) InsertFailure(ctx context.Context, f Failure) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO connect_failures (role, attempt, error, at) VALUES (?, ?, ?, ?)`,
		string(f.Role), int64(f.Attempt), f.Error, toNanos(f.At), //nolint:gosec // attempt counts never approach MaxInt64
	)
	if err != nil {
		return fmt.Errorf("inserting connect failure: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries (default 50, max 500)
//
// Returns:
//   - []MessageEntry: Newest-first entries (empty, never nil)
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) RecentMessages(ctx context.Context, limit int) ([]MessageEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, channel, payload, received_at FROM messages ORDER BY received_at DESC, id DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	entries := []MessageEntry{}
	for rows.Next() {
		var e MessageEntry
		var at int64
		if err := rows.Scan(&e.ID, &e.Channel, &e.Payload, &at); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		e.ReceivedAt = fromNanos(at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return entries, nil
}

// RecentTransitions returns up to limit transitions, newest first.
func (r *SQLiteRepository) RecentTransitions(ctx context.Context, limit int) ([]Transition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, role, from_state, to_state, at FROM role_transitions ORDER BY at DESC, id DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	entries := []Transition{}
	for rows.Next() {
		var t Transition
		var role, from, to string
		var at int64
		if err := rows.Scan(&t.ID, &role, &from, &to, &at); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		t.Role, t.From, t.To = pubsub.Role(role), pubsub.State(from), pubsub.State(to)
		t.At = fromNanos(at)
		entries = append(entries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}
	return entries, nil
}

// RecentFailures returns up to limit connect failures, newest first.
func (r *SQLiteRepository) RecentFailures(ctx context.Context, limit int) ([]Failure, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, role, attempt, error, at FROM connect_failures ORDER BY at DESC, id DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying connect failures: %w", err)
	}
	defer rows.Close()

	entries := []Failure{}
	for rows.Next() {
		var f Failure
		var role string
		var attempt, at int64
		if err := rows.Scan(&f.ID, &role, &attempt, &f.Error, &at); err != nil {
			return nil, fmt.Errorf("scanning connect failure: %w", err)
		}
		f.Role = pubsub.Role(role)
		f.Attempt = uint64(attempt) //nolint:gosec // stored from a uint64
		f.At = fromNanos(at)
		entries = append(entries, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connect failures: %w", err)
	}
	return entries, nil
}

// Prune deletes every row recorded before the cutoff in a single transaction.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - before: Rows strictly older than this are removed
//
// Returns:
//   - PruneResult: Rows removed per table
//   - error: nil on success, otherwise the failing statement's error
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (PruneResult, error) {
	var res PruneResult

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("starting prune transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	cutoff := toNanos(before)
	targets := []struct {
		query string
		count *int64
	}{
		{`DELETE FROM messages WHERE received_at < ?`, &res.Messages},
		{`DELETE FROM role_transitions WHERE at < ?`, &res.Transitions},
		{`DELETE FROM connect_failures WHERE at < ?`, &res.Failures},
	}
	for _, target := range targets {
		result, err := tx.ExecContext(ctx, target.query, cutoff)
		if err != nil {
			return PruneResult{}, fmt.Errorf("pruning journal: %w", err)
		}
		if *target.count, err = result.RowsAffected(); err != nil {
			return PruneResult{}, fmt.Errorf("counting pruned rows: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return PruneResult{}, fmt.Errorf("committing prune: %w", err)
	}
	return res, nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
