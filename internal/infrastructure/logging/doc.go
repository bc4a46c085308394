// Package logging provides structured logging for homegraph.
//
// It wraps log/slog with a JSON or text handler, level filtering and
// default service/version attributes on every entry.
//
// Configuration comes from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	bridgeLog := logger.Component("bridge")
//	bridgeLog.Info("command published", "accessory_id", id)
//
// Never log MQTT credentials.
package logging
