// Package telemetry holds the pubsub.Observer implementations that export
// role events: Prometheus collectors, InfluxDB points and structured logs.
//
// Observer methods run on the event loop, so every implementation here
// either updates in-memory collectors or hands off to a non-blocking writer.
//
// Usage:
//
//	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
//	observer := pubsub.Observers{
//	    metrics,
//	    telemetry.NewLogObserver(log),
//	    telemetry.NewInfluxObserver(influxClient),
//	}
package telemetry
