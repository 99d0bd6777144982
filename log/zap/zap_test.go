package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/offcache/log"
)

func TestZapLoggerFieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	boom := errors.New("boom")
	l.Warn("write-back failed", log.Fields{"key": "k1", "err": boom})
	l.Debug("plain", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d want 2", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "write-back failed" {
		t.Fatalf("unexpected entry %+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["key"] != "k1" || ctx["err"] != "boom" {
		t.Fatalf("context=%v", ctx)
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("want no fields, got %v", entries[1].Context)
	}
}
