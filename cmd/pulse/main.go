// pulse keeps a heartbeat publisher and a channel subscriber connected to a
// message broker, reconnecting each link on a fixed delay whenever it drops.
//
// Configuration is read from configs/config.yaml (or $PULSE_CONFIG) and
// individual values can be overridden with PULSE_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/gray-logic-pulse/internal/api"
	"github.com/nerrad567/gray-logic-pulse/internal/eventloop"
	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-pulse/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-pulse/internal/journal"
	"github.com/nerrad567/gray-logic-pulse/internal/pubsub"
	"github.com/nerrad567/gray-logic-pulse/internal/telemetry"
	"github.com/nerrad567/gray-logic-pulse/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// healthCheckTimeout bounds the startup health pass.
const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, starts both roles and blocks until ctx is
// cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing a startup failure
func run(ctx context.Context) error { //nolint:gocognit,funlen // linear startup sequence
	log := logging.Default()
	log.Info("starting pulse",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Metrics registry is per run so the process collectors are not shared.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	observers := pubsub.Observers{telemetry.NewLogObserver(log), metrics}

	// Journal (optional)
	var (
		db            *database.DB
		journalReader api.JournalReader
	)
	if cfg.Journal.Enabled {
		db, err = database.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("opening journal database: %w", err)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx, migrations.Source()); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("journal ready", "path", cfg.Journal.Path)

		repo := journal.NewSQLiteRepository(db.DB)
		journalReader = repo

		recorder := journal.NewRecorder(journal.RecorderConfig{
			Repository: repo,
			BufferSize: cfg.Journal.BufferSize,
			Retention:  time.Duration(cfg.Journal.RetentionHours) * time.Hour,
			Logger:     log,
		})
		recorder.Start(context.WithoutCancel(ctx))
		defer func() {
			log.Info("flushing journal")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing journal recorder", "error", closeErr)
			}
		}()

		observers = append(observers, recorder)
		metrics.RegisterGaugeFunc("journal_dropped_events", "Journal events dropped because the queue was full",
			func() float64 { return float64(recorder.Dropped()) })
	} else {
		log.Info("journal disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		observers = append(observers, telemetry.NewInfluxObserver(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// WebSocket hub observes role events when the API is on.
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.API.WebSocket, log)
		observers = append(observers, hub)
	}

	// Event loop and broker links
	loop := eventloop.New(eventloop.SystemClock())
	loop.SetLogger(log)

	pubConn := mqtt.NewConnection(cfg.Broker, string(pubsub.RolePublisher))
	pubConn.SetLogger(log)
	subConn := mqtt.NewConnection(cfg.Broker, string(pubsub.RoleSubscriber))
	subConn.SetLogger(log)

	client, err := pubsub.New(pubsub.Options{
		Config: pubsub.Config{
			Address:         cfg.Broker.Host,
			Port:            cfg.BrokerPort(),
			Channel:         cfg.PubSub.Channel,
			RetryDelay:      cfg.RetryDelay(),
			HeartbeatFormat: cfg.PubSub.HeartbeatFormat,
		},
		Loop:           loop,
		PublisherConn:  pubConn,
		SubscriberConn: subConn,
		Observer:       observers,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("creating pubsub client: %w", err)
	}

	// HTTP API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Client:   client,
			Journal:  journalReader,
			Gatherer: reg,
			Hub:      hub,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	// The loop outlives ctx so the Stop events posted below still run.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()

	client.Start()
	log.Info("pulse running",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"channel", cfg.PubSub.Channel,
		"retry_delay", cfg.RetryDelay(),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	client.Stop()
	stopLoop()
	if loopErr := <-loopDone; loopErr != nil {
		log.Error("event loop error", "error", loopErr)
	}

	// Deferred Close() calls run in reverse order:
	// API, InfluxDB, journal recorder, journal database.

	log.Info("pulse stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PULSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PULSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the optional storage backends before the roles start.
// Broker links are not checked: they reconnect on their own.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Journal database (nil if disabled)
//   - influxClient: InfluxDB client (nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
