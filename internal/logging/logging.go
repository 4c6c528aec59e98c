// Package logging configures the process-wide structured logger.
//
// All components log through *slog.Logger handles derived from the logger
// returned by Init. Output is JSON on stderr so stdout stays free for any
// protocol or piping use.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init builds the root logger at the given level ("debug", "info", "warn",
// "error"; unknown values fall back to info) and installs it as the slog
// default.
func Init(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
