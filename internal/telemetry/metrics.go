package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
)

const namespace = "pulse"

// Metrics exports role events as Prometheus collectors. It implements
// pubsub.Observer.
type Metrics struct {
	reg prometheus.Registerer

	// Role metrics
	StateTransitions *prometheus.CounterVec
	Connected        *prometheus.GaugeVec
	ConnectFailures  *prometheus.CounterVec

	// Publisher metrics
	HeartbeatsPublished prometheus.Counter
	HeartbeatSequence   prometheus.Gauge

	// Subscriber metrics
	MessagesReceived *prometheus.CounterVec
	MessageBytes     prometheus.Histogram
}

// NewMetrics creates and registers the collectors on reg.
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,

		StateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Total number of role state transitions",
			},
			[]string{"role", "to"},
		),

		Connected: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "role_connected",
				Help:      "Role link state (1=connected, 0=disconnected)",
			},
			[]string{"role"},
		),

		ConnectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_failures_total",
				Help:      "Total number of failed connect attempts",
			},
			[]string{"role"},
		),

		HeartbeatsPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "heartbeats_published_total",
				Help:      "Total number of heartbeats published",
			},
		),

		HeartbeatSequence: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "heartbeat_sequence",
				Help:      "Counter value of the last published heartbeat",
			},
		),

		MessagesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_received_total",
				Help:      "Total number of messages received",
			},
			[]string{"channel"},
		),

		MessageBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "message_size_bytes",
				Help:      "Size of received message payloads",
				Buckets:   prometheus.ExponentialBuckets(8, 2, 10), // 8B to ~4KB
			},
		),
	}
}

// RegisterGaugeFunc exposes a value computed at scrape time, such as the
// journal's drop counter.
func (m *Metrics) RegisterGaugeFunc(name, help string, fn func() float64) {
	promauto.With(m.reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		fn,
	)
}

// StateChanged records a transition and the resulting link state.
func (m *Metrics) StateChanged(role pubsub.Role, _, to pubsub.State) {
	m.StateTransitions.WithLabelValues(string(role), string(to)).Inc()
	SetRoleConnected(m.Connected, role, to.Live())
}

// ConnectFailed records a failed attempt.
func (m *Metrics) ConnectFailed(role pubsub.Role, _ uint64, _ error) {
	m.ConnectFailures.WithLabelValues(string(role)).Inc()
}

// HeartbeatPublished records a heartbeat.
func (m *Metrics) HeartbeatPublished(seq uint64, _ []byte) {
	m.HeartbeatsPublished.Inc()
	m.HeartbeatSequence.Set(float64(seq))
}

// MessageReceived records an inbound message.
func (m *Metrics) MessageReceived(msg pubsub.Message) {
	m.MessagesReceived.WithLabelValues(msg.Channel).Inc()
	m.MessageBytes.Observe(float64(len(msg.Text)))
}

// SetRoleConnected sets the connection gauge for role
func SetRoleConnected(g *prometheus.GaugeVec, role pubsub.Role, connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	g.WithLabelValues(string(role)).Set(value)
}
