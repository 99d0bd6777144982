package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/offcache/log"
)

func TestLoggerWritesSortedFields(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug}))}

	l.Warn("write-back failed", log.Fields{"key": "/items", "attempt": 1})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Fatalf("missing level: %q", out)
	}
	if strings.Index(out, "attempt=1") > strings.Index(out, "key=/items") {
		t.Fatalf("fields not sorted: %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}

	l.Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered, got %q", buf.String())
	}
}
