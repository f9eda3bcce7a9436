package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
	"github.com/nerrad567/gray-logic-pulse/migrations"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupRepo opens an in-memory database with the journal schema.
func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.JournalConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.Source()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

// =============================================================================
// Repository Tests
// =============================================================================

func TestRepository_Messages(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i, text := range []string{"message 0", "message 1", "message 2"} {
		err := repo.InsertMessage(ctx, pubsub.Message{
			Channel:    "pulse/heartbeat",
			Text:       text,
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("InsertMessage() error = %v", err)
		}
	}

	got, err := repo.RecentMessages(ctx, 2)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentMessages() returned %d, want 2", len(got))
	}
	if got[0].Payload != "message 2" || got[1].Payload != "message 1" {
		t.Errorf("RecentMessages() = %+v, want newest first", got)
	}
	if !got[0].ReceivedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("ReceivedAt = %v, want %v", got[0].ReceivedAt, base.Add(2*time.Second))
	}
}

func TestRepository_InsertMessageRequiresChannel(t *testing.T) {
	repo := setupRepo(t)

	if err := repo.InsertMessage(context.Background(), pubsub.Message{Text: "x"}); err == nil {
		t.Error("InsertMessage() expected error without channel")
	}
}

func TestRepository_TransitionsAndFailures(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := repo.InsertTransition(ctx, Transition{
		Role: pubsub.RoleSubscriber, From: pubsub.StateConnecting, To: pubsub.StateSubscribed, At: base,
	}); err != nil {
		t.Fatalf("InsertTransition() error = %v", err)
	}
	if err := repo.InsertFailure(ctx, Failure{
		Role: pubsub.RolePublisher, Attempt: 3, Error: "connection refused", At: base,
	}); err != nil {
		t.Fatalf("InsertFailure() error = %v", err)
	}

	transitions, err := repo.RecentTransitions(ctx, 0)
	if err != nil {
		t.Fatalf("RecentTransitions() error = %v", err)
	}
	if len(transitions) != 1 || transitions[0].To != pubsub.StateSubscribed || transitions[0].Role != pubsub.RoleSubscriber {
		t.Errorf("RecentTransitions() = %+v", transitions)
	}

	failures, err := repo.RecentFailures(ctx, 0)
	if err != nil {
		t.Fatalf("RecentFailures() error = %v", err)
	}
	if len(failures) != 1 || failures[0].Attempt != 3 || failures[0].Error != "connection refused" {
		t.Errorf("RecentFailures() = %+v", failures)
	}
}

func TestRepository_InvalidRoleRejected(t *testing.T) {
	repo := setupRepo(t)

	err := repo.InsertTransition(context.Background(), Transition{Role: "observer", From: "a", To: "b", At: base})
	if err == nil {
		t.Error("InsertTransition() expected CHECK constraint error")
	}
}

func TestRepository_Prune(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	old := base.Add(-48 * time.Hour)
	_ = repo.InsertMessage(ctx, pubsub.Message{Channel: "c", Text: "old", ReceivedAt: old})
	_ = repo.InsertMessage(ctx, pubsub.Message{Channel: "c", Text: "new", ReceivedAt: base})
	_ = repo.InsertTransition(ctx, Transition{Role: pubsub.RolePublisher, From: pubsub.StateIdle, To: pubsub.StateConnecting, At: old})
	_ = repo.InsertFailure(ctx, Failure{Role: pubsub.RolePublisher, Attempt: 1, Error: "x", At: old})

	res, err := repo.Prune(ctx, base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if res.Messages != 1 || res.Transitions != 1 || res.Failures != 1 || res.Total() != 3 {
		t.Errorf("Prune() = %+v, want one row per table", res)
	}

	msgs, _ := repo.RecentMessages(ctx, 10)
	if len(msgs) != 1 || msgs[0].Payload != "new" {
		t.Errorf("remaining messages = %+v", msgs)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, defaultLimit},
		{-5, defaultLimit},
		{10, 10},
		{maxLimit + 1, maxLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// Recorder Tests
// =============================================================================

func TestRecorder_WritesObservedEvents(t *testing.T) {
	repo := setupRepo(t)
	rec := NewRecorder(RecorderConfig{
		Repository: repo,
		Now:        func() time.Time { return base },
	})
	rec.Start(context.Background())

	var _ pubsub.Observer = rec
	rec.StateChanged(pubsub.RolePublisher, pubsub.StateIdle, pubsub.StateConnecting)
	rec.ConnectFailed(pubsub.RolePublisher, 1, errors.New("connection refused"))
	rec.HeartbeatPublished(0, []byte("message 0"))
	rec.MessageReceived(pubsub.Message{Channel: "pulse/heartbeat", Text: "message 0", ReceivedAt: base})

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx := context.Background()
	transitions, _ := repo.RecentTransitions(ctx, 10)
	failures, _ := repo.RecentFailures(ctx, 10)
	messages, _ := repo.RecentMessages(ctx, 10)

	if len(transitions) != 1 || !transitions[0].At.Equal(base) {
		t.Errorf("transitions = %+v", transitions)
	}
	if len(failures) != 1 {
		t.Errorf("failures = %+v", failures)
	}
	if len(messages) != 1 || messages[0].Payload != "message 0" {
		t.Errorf("messages = %+v", messages)
	}
	if rec.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", rec.Dropped())
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	repo := setupRepo(t)
	rec := NewRecorder(RecorderConfig{Repository: repo, BufferSize: 2})

	// Not started: nothing drains the queue.
	for i := 0; i < 5; i++ {
		rec.MessageReceived(pubsub.Message{Channel: "c", Text: "x", ReceivedAt: base})
	}

	if rec.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", rec.Dropped())
	}
}

func TestRecorder_DropsAfterClose(t *testing.T) {
	repo := setupRepo(t)
	rec := NewRecorder(RecorderConfig{Repository: repo})
	rec.Start(context.Background())
	_ = rec.Close()
	_ = rec.Close()

	rec.MessageReceived(pubsub.Message{Channel: "c", Text: "late", ReceivedAt: base})

	if rec.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", rec.Dropped())
	}
}

func TestRecorder_Prune(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	_ = repo.InsertMessage(ctx, pubsub.Message{Channel: "c", Text: "old", ReceivedAt: base.Add(-2 * time.Hour)})

	rec := NewRecorder(RecorderConfig{
		Repository: repo,
		Retention:  time.Hour,
		Now:        func() time.Time { return base },
	})

	res, err := rec.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if res.Messages != 1 {
		t.Errorf("Prune() removed %d messages, want 1", res.Messages)
	}

	disabled := NewRecorder(RecorderConfig{Repository: repo})
	if res, _ := disabled.Prune(ctx); res.Total() != 0 {
		t.Errorf("Prune() with retention disabled = %+v", res)
	}
}
