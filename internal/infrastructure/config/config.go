package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-pulse/internal/heartbeat"
)

// Config is the root configuration structure for pulse.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Broker   BrokerConfig   `yaml:"broker"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
	Logging  LoggingConfig  `yaml:"logging"`
	Journal  JournalConfig  `yaml:"journal"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
}

// BrokerConfig contains MQTT broker connection details shared by both roles.
type BrokerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TLS            bool   `yaml:"tls"`
	ClientID       string `yaml:"client_id"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	QoS            int    `yaml:"qos"`
	KeepAlive      int    `yaml:"keepalive"`
	ConnectTimeout int    `yaml:"connect_timeout"`
}

// PubSubConfig contains the publisher/subscriber role settings.
type PubSubConfig struct {
	// Channel is the single channel the publisher writes heartbeats to
	// and the subscriber listens on.
	Channel string `yaml:"channel"`

	// RetryDelay is the fixed wait between a failed connect attempt and the
	// next one (seconds). It is also the heartbeat interval.
	RetryDelay int `yaml:"retry_delay"`

	// HeartbeatFormat is a fmt template with a single integer verb (%d, %5d, ...)
	// for the counter.
	HeartbeatFormat string `yaml:"heartbeat_format"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// JournalConfig contains settings for the SQLite message journal.
type JournalConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"`
	WALMode        bool   `yaml:"wal_mode"`
	BusyTimeout    int    `yaml:"busy_timeout"`
	RetentionHours int    `yaml:"retention_hours"`
	BufferSize     int    `yaml:"buffer_size"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP status API settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	WebSocket WebSocketConfig  `yaml:"websocket"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PULSE_SECTION_KEY
// For example: PULSE_BROKER_HOST, PULSE_RETRY_DELAY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// The broker defaults match a local Mosquitto install.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Host:           "127.0.0.1",
			Port:           1883,
			ClientID:       "pulse",
			QoS:            1,
			KeepAlive:      30,
			ConnectTimeout: 10,
		},
		PubSub: PubSubConfig{
			Channel:         "pulse/heartbeat",
			RetryDelay:      1,
			HeartbeatFormat: "message %d",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Journal: JournalConfig{
			Enabled:        false,
			Path:           "./data/pulse.db",
			WALMode:        true,
			BusyTimeout:    5,
			RetentionHours: 24,
			BufferSize:     256,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				MaxMessageSize: 4096,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Numeric variables that fail to parse are reported together.
func applyEnvOverrides(cfg *Config) error {
	var errs []string

	envInt := func(name string, dst *int) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not an integer", name, v))
			return
		}
		*dst = n
	}

	// Broker
	if v := os.Getenv("PULSE_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	envInt("PULSE_BROKER_PORT", &cfg.Broker.Port)
	if v := os.Getenv("PULSE_BROKER_USERNAME"); v != "" {
		cfg.Broker.Username = v
	}
	if v := os.Getenv("PULSE_BROKER_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}

	// Roles
	if v := os.Getenv("PULSE_CHANNEL"); v != "" {
		cfg.PubSub.Channel = v
	}
	envInt("PULSE_RETRY_DELAY", &cfg.PubSub.RetryDelay)

	// Journal
	if v := os.Getenv("PULSE_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// InfluxDB
	if v := os.Getenv("PULSE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("PULSE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	envInt("PULSE_API_PORT", &cfg.API.Port)

	// Logging
	if v := os.Getenv("PULSE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Broker validation
	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}
	if c.Broker.ClientID == "" {
		errs = append(errs, "broker.client_id is required")
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
		errs = append(errs, "broker.qos must be 0, 1, or 2")
	}

	// Role validation
	if c.PubSub.Channel == "" {
		errs = append(errs, "pubsub.channel is required")
	}
	if c.PubSub.RetryDelay < 1 {
		errs = append(errs, "pubsub.retry_delay must be at least 1 second")
	}
	if err := heartbeat.ValidateFormat(c.PubSub.HeartbeatFormat); err != nil {
		errs = append(errs, fmt.Sprintf("pubsub.heartbeat_format: %v", err))
	}

	// Journal validation
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RetryDelay returns the fixed reconnect/heartbeat interval as a Duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.PubSub.RetryDelay) * time.Second
}

// BrokerPort returns the broker port as the uint16 the roles connect with.
// Validate guarantees the value fits.
func (c *Config) BrokerPort() uint16 {
	return uint16(c.Broker.Port) // #nosec G115 -- range checked in Validate
}
