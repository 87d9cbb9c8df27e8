// Package logging provides structured logging for the bridge.
//
// It wraps log/slog. Every record carries service and version fields; text
// output suits a terminal or journald, JSON suits log shippers.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("bridge started", "prefix", cfg.MQTT.Prefix)
//
// Never log the MQTT password or the InfluxDB token.
package logging
