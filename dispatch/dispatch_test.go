package dispatch

import (
	"sync"
	"testing"
	"time"
)

func TestSerialIsFIFO(t *testing.T) {
	s := NewSerial(4)
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		s.Dispatch(func() { got = append(got, i) })
	}
	s.Close()

	if len(got) != 100 {
		t.Fatalf("ran %d of 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: %d", i, v)
		}
	}
}

func TestSerialNeverConcurrent(t *testing.T) {
	s := NewSerial(8)
	var mu sync.Mutex
	running, maxRunning := 0, 0

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Dispatch(func() {
					mu.Lock()
					running++
					if running > maxRunning {
						maxRunning = running
					}
					mu.Unlock()
					mu.Lock()
					running--
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()
	s.Close()
	if maxRunning != 1 {
		t.Fatalf("max concurrent callbacks = %d", maxRunning)
	}
}

func TestSerialAfterCloseRunsInline(t *testing.T) {
	s := NewSerial(1)
	s.Close()
	s.Close()
	ran := false
	s.Dispatch(func() { ran = true })
	if !ran {
		t.Fatal("dispatch after Close should run inline")
	}
}

func TestSerialCallbackCanDispatchPastCapacity(t *testing.T) {
	s := NewSerial(1)
	done := make(chan struct{})
	var got []int
	s.Dispatch(func() {
		for i := 0; i < 10; i++ {
			i := i
			s.Dispatch(func() { got = append(got, i) })
		}
		s.Dispatch(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch from a callback blocked on a full queue")
	}
	s.Close()
	if len(got) != 10 || got[9] != 9 {
		t.Fatalf("got %v", got)
	}
}

func TestInline(t *testing.T) {
	ran := false
	Inline{}.Dispatch(func() { ran = true })
	if !ran {
		t.Fatal("Inline must run synchronously")
	}
}
