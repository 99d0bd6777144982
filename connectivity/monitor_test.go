package connectivity

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInitialStateAndSet(t *testing.T) {
	m := New(Options{})
	if m.Connected() {
		t.Fatal("zero Options must start disconnected")
	}
	if m.Status() != Unreachable {
		t.Fatalf("Status = %s", m.Status())
	}
	m.Set(true)
	if !m.Connected() || m.Status() != Reachable {
		t.Fatal("Set(true) not observed")
	}
	if !New(Options{Initial: true}).Connected() {
		t.Fatal("Initial ignored")
	}
}

func TestObserversFanOutOnEveryEvent(t *testing.T) {
	m := New(Options{})
	var mu sync.Mutex
	var a, b []bool
	if err := m.Subscribe(func(v bool) { mu.Lock(); a = append(a, v); mu.Unlock() }); err != nil {
		t.Fatal(err)
	}
	if err := m.Subscribe(func(v bool) { mu.Lock(); b = append(b, v); mu.Unlock() }); err != nil {
		t.Fatal(err)
	}

	m.Set(true)
	m.Set(true)
	m.Set(false)

	mu.Lock()
	defer mu.Unlock()
	want := []bool{true, true, false}
	for _, got := range [][]bool{a, b} {
		if len(got) != len(want) {
			t.Fatalf("got %v want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v want %v", got, want)
			}
		}
	}
}

func TestStartFromChanSource(t *testing.T) {
	m := New(Options{})
	src := make(ChanSource)
	if err := m.Start(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)

	src <- true
	waitFor(t, m.Connected)
	src <- false
	waitFor(t, func() bool { return !m.Connected() })

	if err := m.Start(context.Background(), src); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start = %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	New(Options{}).Stop()
}

func TestProbeReachableIfAnyDialSucceeds(t *testing.T) {
	p := &Probe{
		Addrs: []string{"down:1", "up:1"},
		Dial: func(_ context.Context, _, addr string) (net.Conn, error) {
			if addr == "up:1" {
				c1, c2 := net.Pipe()
				_ = c2.Close()
				return c1, nil
			}
			return nil, errors.New("refused")
		},
	}
	if !p.Reachable(context.Background()) || p.Check(context.Background()) != Reachable {
		t.Fatal("expected reachable")
	}
	p.Addrs = []string{"down:1"}
	if p.Reachable(context.Background()) {
		t.Fatal("expected unreachable")
	}
}

func TestProbeEmitsFirstThenChangesOnly(t *testing.T) {
	var up atomic.Bool
	p := &Probe{
		Addrs:    []string{"x:1"},
		Interval: time.Millisecond,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			if up.Load() {
				c1, c2 := net.Pipe()
				_ = c2.Close()
				return c1, nil
			}
			return nil, errors.New("refused")
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ev := p.Events(ctx)

	if v := <-ev; v {
		t.Fatal("first observation should be unreachable")
	}
	up.Store(true)
	if v := <-ev; !v {
		t.Fatal("expected change to reachable")
	}
	cancel()
	for range ev {
	}
}
