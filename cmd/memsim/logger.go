package main

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger builds the text logger used by the session and the allocator it drives
func newLogger(logLevel string, w io.Writer) *slog.Logger {
	var level slog.Level

	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler).With(slog.String("component", "memsim"))
}
