package bigcache

import (
	"context"
	"testing"
	"time"
)

func newTest(t *testing.T) *Provider {
	t.Helper()
	p, err := New(context.Background(), Config{LifeWindow: time.Minute, HardMaxCacheSizeMB: 8})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestRoundTripAndMiss(t *testing.T) {
	ctx := context.Background()
	p := newTest(t)

	if _, ok, err := p.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "k", []byte("v"), 0, 0); !ok || err != nil {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	b, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("Get: %q ok=%v err=%v", b, ok, err)
	}
}

func TestDelMissingAndClear(t *testing.T) {
	ctx := context.Background()
	p := newTest(t)

	if err := p.Del(ctx, "nope"); err != nil {
		t.Fatalf("Del on missing key: %v", err)
	}
	_, _ = p.Set(ctx, "k", []byte("v"), 0, 0)
	if err := p.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatal("Clear should drop entries")
	}
}
