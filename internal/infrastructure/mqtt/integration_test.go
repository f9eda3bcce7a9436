//go:build integration

package mqtt

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-pulse/internal/eventloop"
	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

// Integration tests against a real broker.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func connectOrFatal(t *testing.T, conn *Connection) {
	t.Helper()
	done, wait := waitDone(t)
	conn.Connect("127.0.0.1", 1883, done)
	if err := wait(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
}

func TestIntegration_PublishSubscribe(t *testing.T) {
	pub := NewConnection(testConfig(), "publisher")
	sub := NewConnection(testConfig(), "subscriber")
	connectOrFatal(t, pub)
	connectOrFatal(t, sub)
	defer pub.Disconnect()
	defer sub.Disconnect()

	topic := "pulse/int/pubsub"
	received := make(chan string, 1)

	done, wait := waitDone(t)
	sub.Subscribe(topic, func(payload []byte) {
		select {
		case received <- string(payload):
		default:
		}
	}, done)
	if err := wait(); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := pub.Publish(topic, []byte("message 0")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "message 0" {
			t.Errorf("received %q, want %q", got, "message 0")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}

func TestIntegration_ConnectTwice(t *testing.T) {
	conn := NewConnection(testConfig(), "publisher")
	connectOrFatal(t, conn)
	defer conn.Disconnect()

	done, wait := waitDone(t)
	conn.Connect("127.0.0.1", 1883, done)
	if err := wait(); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect() error = %v, want ErrAlreadyConnected", err)
	}
}

func TestIntegration_DisconnectStopsDelivery(t *testing.T) {
	pub := NewConnection(testConfig(), "publisher")
	sub := NewConnection(testConfig(), "subscriber")
	connectOrFatal(t, pub)
	connectOrFatal(t, sub)
	defer pub.Disconnect()

	var mu sync.Mutex
	count := 0
	done, wait := waitDone(t)
	sub.Subscribe("pulse/int/disconnect", func([]byte) {
		mu.Lock()
		count++
		mu.Unlock()
	}, done)
	if err := wait(); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	sub.Disconnect()
	sub.Disconnect()
	_ = pub.Publish("pulse/int/disconnect", []byte("late"))
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("received %d messages after Disconnect, want 0", count)
	}
}

// TestIntegration_ClientHeartbeat runs the full client against the broker
// and waits for the subscriber to see a heartbeat.
func TestIntegration_ClientHeartbeat(t *testing.T) {
	loop := eventloop.New(eventloop.SystemClock())
	received := make(chan string, 8)

	client, err := pubsub.New(pubsub.Options{
		Config: pubsub.Config{
			Address:    "127.0.0.1",
			Port:       1883,
			Channel:    "pulse/int/heartbeat",
			RetryDelay: 200 * time.Millisecond,
		},
		Loop:           loop,
		PublisherConn:  NewConnection(testConfig(), "publisher"),
		SubscriberConn: NewConnection(testConfig(), "subscriber"),
		Observer:       messageSink(received),
	})
	if err != nil {
		t.Fatalf("pubsub.New() error = %v", err)
	}

	ctx := t.Context()
	client.Start()
	go loop.Run(ctx) //nolint:errcheck // Test loop
	defer client.Stop()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case text := <-received:
			if strings.HasPrefix(text, "message ") {
				return
			}
		case <-deadline:
			t.Fatalf("heartbeat not received, status = %+v", client.Status())
		}
	}
}

type messageSink chan string

func (messageSink) StateChanged(pubsub.Role, pubsub.State, pubsub.State) {}
func (messageSink) ConnectFailed(pubsub.Role, uint64, error)             {}
func (messageSink) HeartbeatPublished(uint64, []byte)                    {}
func (m messageSink) MessageReceived(msg pubsub.Message) {
	select {
	case m <- msg.Text:
	default:
	}
}
