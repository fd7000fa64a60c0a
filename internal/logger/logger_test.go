package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

type recordingPoster struct {
	tags []string
	msgs []map[string]any
}

func (p *recordingPoster) Post(tag string, message any) error {
	p.tags = append(p.tags, tag)
	p.msgs = append(p.msgs, message.(map[string]any))
	return nil
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{" WARN ", slog.LevelWarn, true},
		{"", slog.LevelInfo, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %t; want %v, %t", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSlogAdapterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelInfo, IsJSON: true}).
		WithFields(Fields{"component": "test"})

	log.Debug("hidden", nil)
	log.Error("settle failed", errors.New("boom"), Fields{"rental_id": 7})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "settle failed" || line["component"] != "test" || line["rental_id"] != float64(7) {
		t.Errorf("unexpected line %v", line)
	}
	if line["err"] != "boom" {
		t.Errorf("err attribute = %v, want boom", line["err"])
	}
}

func TestFluentAdapter(t *testing.T) {
	p := &recordingPoster{}
	a := &FluentAdapter{client: p, fields: Fields{}, minLevel: slog.LevelInfo}
	log := a.WithFields(Fields{"app": "rental-ledger"})

	log.Debug("dropped", nil)
	log.Info("rental created", Fields{"rental_id": int64(3)})
	log.Error("publish failed", errors.New("closed"), nil)

	if len(p.tags) != 2 || p.tags[0] != "info" || p.tags[1] != "error" {
		t.Fatalf("tags = %v", p.tags)
	}
	if p.msgs[0]["app"] != "rental-ledger" || p.msgs[0]["rental_id"] != int64(3) {
		t.Errorf("info record = %v", p.msgs[0])
	}
	if p.msgs[1]["error"] != "closed" {
		t.Errorf("error record = %v", p.msgs[1])
	}
	if len(a.fields) != 0 {
		t.Error("WithFields mutated the parent adapter")
	}
}

func TestMultiFansOut(t *testing.T) {
	p1, p2 := &recordingPoster{}, &recordingPoster{}
	m := NewMulti(
		&FluentAdapter{client: p1, fields: Fields{}, minLevel: slog.LevelDebug},
		&FluentAdapter{client: p2, fields: Fields{}, minLevel: slog.LevelWarn},
	).WithFields(Fields{"trace_id": "abc"})

	m.Info("only first", nil)
	m.Warn("both", nil)

	if len(p1.msgs) != 2 || len(p2.msgs) != 1 {
		t.Fatalf("got %d and %d records", len(p1.msgs), len(p2.msgs))
	}
	if p2.msgs[0]["trace_id"] != "abc" {
		t.Errorf("fields not propagated: %v", p2.msgs[0])
	}
}
