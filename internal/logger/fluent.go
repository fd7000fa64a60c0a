package logger

import (
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// FluentConfig holds Fluent Bit connection settings.
type FluentConfig struct {
	Host      string
	Port      int
	TagPrefix string
}

// NewFluentClient connects to Fluent Bit. The client connects lazily, so a
// nil error does not mean the collector is reachable.
func NewFluentClient(cfg FluentConfig) (*fluent.Fluent, error) {
	if cfg.TagPrefix == "" {
		return nil, fmt.Errorf("fluent tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.Host,
		FluentPort: cfg.Port,
		TagPrefix:  cfg.TagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("create fluent client: %w", err)
	}
	return client, nil
}

// poster is the part of *fluent.Fluent the adapter needs.
type poster interface {
	Post(tag string, message any) error
}

// FluentAdapter ships log lines to Fluent Bit, tagged by level.
type FluentAdapter struct {
	client   poster
	fields   Fields
	minLevel slog.Level
}

// NewFluentAdapter wraps a fluent client.
func NewFluentAdapter(client *fluent.Fluent, minLevel slog.Level) (*FluentAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("fluent client cannot be nil")
	}
	return &FluentAdapter{client: client, fields: Fields{}, minLevel: minLevel}, nil
}

func (a *FluentAdapter) post(level slog.Level, tag, msg string, fields Fields, err error) {
	if level < a.minLevel {
		return
	}
	data := make(Fields, len(a.fields)+len(fields)+4)
	maps.Copy(data, a.fields)
	maps.Copy(data, fields)
	data["level"] = tag
	data["message"] = msg
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	if err != nil {
		data["error"] = err.Error()
	}
	// Logging must never fail a ledger operation.
	_ = a.client.Post(tag, map[string]any(data))
}

func (a *FluentAdapter) Info(msg string, fields Fields) {
	a.post(slog.LevelInfo, "info", msg, fields, nil)
}

func (a *FluentAdapter) Warn(msg string, fields Fields) {
	a.post(slog.LevelWarn, "warn", msg, fields, nil)
}

func (a *FluentAdapter) Error(msg string, err error, fields Fields) {
	a.post(slog.LevelError, "error", msg, fields, err)
}

func (a *FluentAdapter) Debug(msg string, fields Fields) {
	a.post(slog.LevelDebug, "debug", msg, fields, nil)
}

func (a *FluentAdapter) WithFields(fields Fields) Logger {
	merged := make(Fields, len(a.fields)+len(fields))
	maps.Copy(merged, a.fields)
	maps.Copy(merged, fields)
	return &FluentAdapter{client: a.client, fields: merged, minLevel: a.minLevel}
}
