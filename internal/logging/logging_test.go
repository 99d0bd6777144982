package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unkn0wn-root/offcache/config"
)

func TestRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "offfetch.log")
	l, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hello")
	l.Debug("hidden")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"hello"`) || strings.Contains(out, "hidden") {
		t.Fatalf("file = %s", out)
	}
}
