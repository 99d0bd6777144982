// Package dispatch provides the execution contexts result callbacks run on.
package dispatch

import "sync"

// Dispatcher runs fn at some point, in submission order for a single
// submitter.
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs fn in the caller's goroutine.
type Inline struct{}

func (Inline) Dispatch(fn func()) { fn() }

// Serial drains a FIFO on one goroutine, so callbacks never run
// concurrently with each other. The queue is unbounded: Dispatch never
// blocks, so a callback may dispatch more work onto its own Serial.
type Serial struct {
	mu     sync.Mutex
	closed bool
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
}

const defaultQueueLen = 64

// NewSerial starts the consumer. queueLen is the initial queue capacity.
func NewSerial(queueLen int) *Serial {
	if queueLen <= 0 {
		queueLen = defaultQueueLen
	}
	s := &Serial{
		queue: make([]func(), 0, queueLen),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Serial) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		fn := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
	}
}

func (s *Serial) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Dispatch enqueues fn. After Close, fn runs inline.
func (s *Serial) Dispatch(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	s.signal()
}

// Done is closed once the consumer has exited after Close.
func (s *Serial) Done() <-chan struct{} { return s.done }

// Close stops accepting work, drains what is queued and waits for the
// consumer. Safe to call more than once, but not from a callback.
func (s *Serial) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
	<-s.done
}
