// Package logging provides structured logging for the System Bus.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error), adjustable at runtime
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("device registered", "device_id", 1, "address", 0x10)
//	logger.Error("failed to connect", "error", err)
//
// The console's "log" command calls SetLevel on the root logger; every
// component logger derived with With follows the change.
//
// # Security
//
// Never log the MQTT password or the InfluxDB token.
package logging
