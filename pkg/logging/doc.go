// Package logging provides structured logging configuration for pesh.
//
// This package wraps log/slog so the shell, the exporter and the CLI all log
// the same way. The shell's own output (command results) is not logging; only
// warnings about rejected commands and lifecycle events go through here.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("exporter listening", "address", "127.0.0.1:9000")
//	logger.Warn("command failed", "error", err)
//
// # Log Levels
//
// The default level is Warn, which keeps an interactive session quiet apart
// from command failures. Info adds lifecycle events (listening address, history
// file); Debug adds one record per executed command.
//
// # Output Formats
//
//   - Text: human-readable, the default
//   - JSON: for log aggregation systems
//
// A second sink can be configured with Config.File; it always receives JSON.
//
// # Integration
//
// Components should accept a *slog.Logger in their constructor or via an
// option. If no logger is provided, use logging.Nop().
package logging
