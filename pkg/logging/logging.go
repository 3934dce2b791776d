// Package logging builds slog loggers for the mock server engine.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the log output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level to emit.
	Level slog.Level

	// Format selects text or json output.
	Format Format

	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
}

// New creates a slog.Logger from cfg.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Nop returns a logger that discards everything. The engine uses it
// whenever no logger was configured.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel parses a level string ("debug", "info", "warn", "error").
// Unrecognized input maps to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
