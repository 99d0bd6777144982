// Package connectivity tracks whether the network is believed reachable.
//
// The flag is a lock-free atomic read so it can be sampled on every request
// and again at delivery time. Observers are fanned out through an EventBus
// topic; they run synchronously in the goroutine that changed the state and
// must not call back into Set or Subscribe.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"github.com/unkn0wn-root/offcache/log"
)

// Topic is the EventBus topic observers are registered on.
const Topic = "connectivity:changed"

var ErrAlreadyStarted = errors.New("connectivity: monitor already started")

// Status is the health-endpoint rendering of the flag.
type Status string

const (
	Reachable   Status = "reachable"
	Unreachable Status = "unreachable"
)

func StatusOf(connected bool) Status {
	if connected {
		return Reachable
	}
	return Unreachable
}

type Options struct {
	// Initial is the state before the first event. The zero value starts
	// disconnected, so nothing is fetched optimistically before a source
	// has reported.
	Initial bool
	Logger  log.Logger
}

type Monitor struct {
	state atomic.Bool
	bus   evbus.Bus
	log   log.Logger

	setMu   sync.Mutex // orders state changes with their notifications
	started atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(opts Options) *Monitor {
	m := &Monitor{bus: evbus.New(), log: log.OrNop(opts.Logger)}
	m.state.Store(opts.Initial)
	return m
}

// Connected reports the current belief. Safe from any goroutine.
func (m *Monitor) Connected() bool { return m.state.Load() }

func (m *Monitor) Status() Status { return StatusOf(m.Connected()) }

// Set records a new state and notifies observers. Every call notifies,
// including repeats of the current value.
func (m *Monitor) Set(connected bool) {
	m.setMu.Lock()
	defer m.setMu.Unlock()
	prev := m.state.Swap(connected)
	if prev != connected {
		m.log.Info("connectivity changed", log.Fields{"connected": connected})
	}
	m.bus.Publish(Topic, connected)
}

// Subscribe registers fn for every subsequent Set.
func (m *Monitor) Subscribe(fn func(connected bool)) error {
	return m.bus.Subscribe(Topic, fn)
}

// Unsubscribe removes fn. The same func value passed to Subscribe must be
// used.
func (m *Monitor) Unsubscribe(fn func(connected bool)) error {
	return m.bus.Unsubscribe(Topic, fn)
}

// Start feeds the monitor from src until ctx is done or Stop is called.
// A monitor can be started once.
func (m *Monitor) Start(ctx context.Context, src Source) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	events := src.Events(ctx)

	go func() {
		defer close(m.done)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-events:
				if !ok {
					return
				}
				m.Set(v)
			}
		}
	}()
	return nil
}

// Stop ends the source loop started by Start and waits for it.
func (m *Monitor) Stop() {
	if !m.started.Load() || m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}
