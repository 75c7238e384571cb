package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := LogLevelFromString(tt.in); got != tt.want {
				t.Errorf("LogLevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json", Output: &buf})
	ctx := context.Background()

	logger.Info(ctx, "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn(ctx, "kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestLoggerContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf})

	ctx := AddRequestID(context.Background(), "req-1")
	ctx = AddCallID(ctx, "call-7")
	ctx = AddAction(ctx, "computer_click")
	logger.Info(ctx, "action completed", "x", 960)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	for key, want := range map[string]any{
		"request_id": "req-1",
		"call_id":    "call-7",
		"action":     "computer_click",
		"x":          float64(960),
	} {
		if record[key] != want {
			t.Errorf("record[%q] = %v, want %v", key, record[key], want)
		}
	}
}

func TestLoggerRedaction(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		args   []any
		secret string
	}{
		{
			name:   "password in message",
			msg:    "login with password=hunter2hunter2",
			secret: "hunter2hunter2",
		},
		{
			name:   "bearer token in error",
			msg:    "request failed",
			args:   []any{"error", errors.New("bearer abcdefghijklmnopqrstuvwxyz")},
			secret: "abcdefghijklmnopqrstuvwxyz",
		},
		{
			name:   "sensitive map key",
			msg:    "typed",
			args:   []any{"payload", map[string]any{"text": "my secret words"}},
			secret: "my secret words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LogConfig{Format: "json", Output: &buf})
			logger.Error(context.Background(), tt.msg, tt.args...)

			out := buf.String()
			if strings.Contains(out, tt.secret) {
				t.Errorf("secret %q leaked into log: %s", tt.secret, out)
			}
			if !strings.Contains(out, "[REDACTED]") {
				t.Errorf("expected redaction marker in %s", out)
			}
		})
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "text", Output: &buf}).WithFields("component", "dispatcher")
	logger.Info(context.Background(), "ready")

	if !strings.Contains(buf.String(), "component=dispatcher") {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestGetCallIDEmpty(t *testing.T) {
	if got := GetCallID(context.Background()); got != "" {
		t.Errorf("expected empty call id, got %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
}

func TestSlogDefaultKeepsRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "text", Output: &buf}).Slog()
	logger.Info("typed", "text", "hello world", "count", 11)

	out := buf.String()
	if strings.Contains(out, "hello world") {
		t.Fatalf("typed text leaked: %s", out)
	}
	if !strings.Contains(out, "count=11") {
		t.Fatalf("expected untouched numeric field: %s", out)
	}
}
