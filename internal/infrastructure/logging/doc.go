// Package logging provides structured logging for the inventory service.
//
// It wraps log/slog so that every entry carries the same default fields
// (service, version) and honours the configured level and format.
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
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("entity created", "driver", "pool", "name", "p1")
//
// Never log secrets such as the MQTT password or the InfluxDB token.
package logging
