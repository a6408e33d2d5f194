package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{" info ", LevelInfo},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in, LevelInfo); got != c.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEnabledMatchesConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, "WARN")
	if l.Enabled(LevelDebug) {
		t.Fatalf("debug should be disabled at WARN")
	}
	if !l.Enabled(LevelError) {
		t.Fatalf("error should be enabled at WARN")
	}

	l.Debug("dropped")
	l.Trace("dropped")
	if buf.Len() != 0 {
		t.Fatalf("suppressed levels wrote output: %s", buf.String())
	}
	l.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("error record missing: %s", buf.String())
	}
}

func TestTraceEmitsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, "TRACE")
	l.Trace("fine detail", String("k", "v"))
	if !strings.Contains(buf.String(), "fine detail") || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Fatalf("trace record missing: %s", buf.String())
	}
}

func TestNewConsoleLevel(t *testing.T) {
	l := NewConsole("ERROR")
	if l.IsZero() {
		t.Fatalf("console logger should not be zero")
	}
	if l.Enabled(LevelInfo) {
		t.Fatalf("info should be disabled at ERROR")
	}
}
