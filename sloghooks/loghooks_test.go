package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedactsKeys(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})
	h.CacheDecodeFailed("/secret?keyHash=GET", errors.New("bad"))

	out := buf.String()
	if strings.Contains(out, "/secret") {
		t.Fatalf("raw key leaked: %s", out)
	}
	if !strings.Contains(out, "offcache.cache_decode_failed") {
		t.Fatalf("missing event: %s", out)
	}
}

func TestSampling(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{CacheReadEvery: 3, Redact: func(s string) string { return s }})
	for i := 0; i < 9; i++ {
		h.CacheHit("k")
	}
	if n := strings.Count(buf.String(), "offcache.cache_read"); n != 3 {
		t.Fatalf("logged %d of 9 with 1/3 sampling", n)
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.ConnectivityChanged(true)
	h.GenError("bump", errors.New("x"))
}
