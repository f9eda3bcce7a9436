package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes content to a temporary config file and points
// PULSE_CONFIG at it.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("PULSE_CONFIG", path)
	return dir
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("PULSE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config failure", err)
	}
}

func TestRun_InvalidChannel(t *testing.T) {
	writeConfig(t, `
pubsub:
  channel: ""
`)

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "pubsub.channel") {
		t.Errorf("run() error = %v, want pubsub.channel validation failure", err)
	}
}

// TestRun_StopsCleanlyWithoutBroker starts against a closed port. Both roles
// keep retrying, and cancelling ctx shuts everything down without error.
func TestRun_StopsCleanlyWithoutBroker(t *testing.T) {
	dir := writeConfig(t, `
logging:
  level: error
journal:
  enabled: true
api:
  enabled: false
`)
	journalPath := filepath.Join(dir, "data", "pulse.db")
	t.Setenv("PULSE_BROKER_PORT", "1")
	t.Setenv("PULSE_JOURNAL_PATH", journalPath)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}

	if _, err := os.Stat(journalPath); err != nil {
		t.Errorf("journal database not created: %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("PULSE_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("PULSE_CONFIG", "/etc/pulse.yaml")
	if got := getConfigPath(); got != "/etc/pulse.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/pulse.yaml", got)
	}
}

func TestHealthCheck_NothingEnabled(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil); err != nil {
		t.Errorf("healthCheck() error = %v", err)
	}
}
