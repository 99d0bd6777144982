package memory

import (
	"context"
	"testing"
	"time"
)

func TestSetGetCopies(t *testing.T) {
	ctx := context.Background()
	p := New()

	in := []byte("abc")
	if ok, err := p.Set(ctx, "k", in, 0, 0); !ok || err != nil {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	in[0] = 'X'

	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || string(got) != "abc" {
		t.Fatalf("Get: %q ok=%v err=%v", got, ok, err)
	}
	got[1] = 'Y'
	again, _, _ := p.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through Get result: %q", again)
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	p := New()
	now := time.Unix(100, 0)
	p.now = func() time.Time { return now }

	_, _ = p.Set(ctx, "k", []byte("v"), 0, time.Second)
	if _, ok, _ := p.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}
	now = now.Add(time.Second)
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatal("expected miss at expiry")
	}
	if p.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", p.Len())
	}
}

func TestDelAndClear(t *testing.T) {
	ctx := context.Background()
	p := New()
	_, _ = p.Set(ctx, "a", []byte("1"), 0, 0)
	_, _ = p.Set(ctx, "b", []byte("2"), 0, 0)

	_ = p.Del(ctx, "a")
	if _, ok, _ := p.Get(ctx, "a"); ok {
		t.Fatal("a should be gone")
	}
	_ = p.Clear(ctx)
	if p.Len() != 0 {
		t.Fatalf("Clear left %d entries", p.Len())
	}
}
