package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_JSONWithContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	ctx := WithAccount(WithRequestID(context.Background(), "req-1"), "acc-9")
	logger.InfoContext(ctx, "Dashboard served", "rows", 3)
	logger.DebugContext(ctx, "Hidden below level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	want := map[string]any{
		"msg":          "Dashboard served",
		FieldComponent: ComponentHTTP,
		FieldRequestID: "req-1",
		FieldAccountID: "acc-9",
		"rows":         float64(3),
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("record[%q] = %v, want %v", k, rec[k], v)
		}
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "text", Output: &buf})
	logger.Debug("Cache sweep", "removed", 2)

	if !strings.Contains(buf.String(), "msg=\"Cache sweep\"") || !strings.Contains(buf.String(), "removed=2") {
		t.Errorf("unexpected text output %q", buf.String())
	}
	if strings.Contains(buf.String(), FieldComponent) {
		t.Errorf("no component configured, got %q", buf.String())
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID(empty) = %q", got)
	}
	ctx := WithRequestID(context.Background(), "abc")
	if got := RequestID(ctx); got != "abc" {
		t.Errorf("RequestID() = %q, want abc", got)
	}
	// Attaching more attributes keeps earlier ones.
	ctx = WithAccount(ctx, "x")
	if got := RequestID(ctx); got != "abc" || len(Attrs(ctx)) != 2 {
		t.Errorf("RequestID() = %q attrs = %v", got, Attrs(ctx))
	}
}
