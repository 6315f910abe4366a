// Package logging builds the slog loggers shared by cmd/server and the
// schedlab CLI. Every record carries service=schedlab; packages add their own
// component attribute with Component.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger logs to stderr so that CLI results on stdout stay pipeable.
func NewLogger(level slog.Level, format string) *slog.Logger {
	return NewLoggerWithWriter(level, format, os.Stderr)
}

// NewLoggerWithWriter logs to w in "json" or, for any other format, logfmt
// text. At debug level records include the calling file and line.
func NewLoggerWithWriter(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "schedlab")
}

// Component returns a child of logger tagged with the subsystem name.
// A nil logger yields a discarding one, so optional loggers need no checks.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With("component", name)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a --log-level / log_level value onto slog. Unknown values,
// including the empty string, mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
