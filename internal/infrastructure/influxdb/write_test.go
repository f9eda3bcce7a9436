package influxdb

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/config"
)

// recordingWriter captures points instead of sending them.
type recordingWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (w *recordingWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
}

func (w *recordingWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
}

// lines renders captured points as line protocol.
func (w *recordingWriter) lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.points))
	for _, p := range w.points {
		out = append(out, write.PointToLineProtocol(p, time.Nanosecond))
	}
	return out
}

func newTestClient() (*Client, *recordingWriter) {
	w := &recordingWriter{}
	c := newClient(w, config.InfluxDBConfig{Enabled: true})
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c, w
}

func TestWriters_Measurements(t *testing.T) {
	tests := []struct {
		name  string
		write func(c *Client)
		want  []string
	}{
		{
			name:  "heartbeat",
			write: func(c *Client) { c.WriteHeartbeat(7, []byte("message 7")) },
			want:  []string{"pulse_heartbeat,role=publisher", "seq=7i", "bytes=9i"},
		},
		{
			name:  "state change",
			write: func(c *Client) { c.WriteStateChange("subscriber", "connecting", "subscribed", true) },
			want:  []string{"pulse_state,role=subscriber,state=subscribed", `from="connecting"`, "connected=true"},
		},
		{
			name:  "message",
			write: func(c *Client) { c.WriteMessage("pulse/heartbeat", []byte("message 0")) },
			want:  []string{"pulse_message,channel=pulse/heartbeat", "bytes=9i"},
		},
		{
			name:  "connect failure",
			write: func(c *Client) { c.WriteConnectFailure("publisher", 3, errors.New("refused")) },
			want:  []string{"pulse_connect_failure,role=publisher", "attempt=3i", `error="refused"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestClient()
			tt.write(c)

			lines := w.lines()
			if len(lines) != 1 {
				t.Fatalf("wrote %d points, want 1", len(lines))
			}
			for _, part := range tt.want {
				if !strings.Contains(lines[0], part) {
					t.Errorf("line %q missing %q", lines[0], part)
				}
			}
			if !strings.HasSuffix(strings.TrimSpace(lines[0]), "1700000000000000000") {
				t.Errorf("line %q not stamped with client clock", lines[0])
			}
		})
	}
}

func TestWritePoint_DroppedAfterClose(t *testing.T) {
	c, w := newTestClient()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	c.WriteHeartbeat(1, []byte("message 1"))

	if n := len(w.lines()); n != 0 {
		t.Errorf("wrote %d points after Close, want 0", n)
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, want 1 (Close flushes once)", w.flushes)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	c.Flush()
	if w.flushes != 1 {
		t.Errorf("flushes = %d after closed Flush, want 1", w.flushes)
	}
}

func TestHandleWriteErrors_WrapsAndForwards(t *testing.T) {
	c, _ := newTestClient()

	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	ch := make(chan error, 1)
	ch <- errors.New("bucket not found")
	close(ch)
	c.handleWriteErrors(ch)

	err := <-got
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("callback error = %v, want ErrWriteFailed", err)
	}
}
