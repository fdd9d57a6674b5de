package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, slog.LevelInfo, "json")

	ctx := WithRequestID(context.Background(), "req-42")
	l.InfoContext(ctx, "hello", Username("alice"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec[FieldRequestID] != "req-42" {
		t.Fatalf("request_id missing: %v", rec)
	}
	if rec[FieldUsername] != "alice" {
		t.Fatalf("username missing: %v", rec)
	}
}

func TestTextFormatAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, slog.LevelWarn, "text")

	l.InfoContext(context.Background(), "dropped")
	l.WarnContext(context.Background(), "kept", Error(errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "error=boom") {
		t.Fatalf("unexpected text output: %q", out)
	}
}

func TestRequestIDEmpty(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	if got := Error(nil); got.Value.String() != "" {
		t.Fatalf("nil error should render empty, got %q", got.Value.String())
	}
}
