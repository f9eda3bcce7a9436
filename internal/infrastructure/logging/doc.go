// Package logging provides structured logging for pulse.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same shape and default fields.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	pubLog := logger.With("role", "publisher")
//	pubLog.Warn("connect failed", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
