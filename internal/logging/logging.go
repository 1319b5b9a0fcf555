// Package logging configures the diagnostic logger. Diagnostics always go
// to stderr so they never mix with the report on stdout.
package logging

import (
	"io"
	"log/slog"
)

// New returns a logger writing to w. Debug enables debug records. When
// machineOutput is true the logger emits JSON lines, otherwise text.
func New(w io.Writer, debug, machineOutput bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if machineOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
