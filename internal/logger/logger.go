// Package logger provides the structured logging port used across the
// ledger and its stdout, Fluent Bit and fan-out adapters.
package logger

import (
	"log/slog"
	"strings"
)

// Fields carries structured data attached to a log line.
type Fields map[string]any

// Logger abstracts the ledger from a concrete logging backend.
type Logger interface {
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	// Error records msg together with err, which may be nil.
	Error(msg string, err error, fields Fields)
	Debug(msg string, fields Fields)

	// WithFields returns a logger that adds fields to every line.
	WithFields(fields Fields) Logger
}

// ParseLevel maps a config string to a slog level. Unknown values yield
// info and ok=false.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

type nop struct{}

// Nop returns a logger that discards everything.
func Nop() Logger { return nop{} }

func (nop) Info(string, Fields) {}
func (nop) Warn(string, Fields) {}
func (nop) Error(string, error, Fields) {}
func (nop) Debug(string, Fields) {}
func (n nop) WithFields(Fields) Logger { return n }
