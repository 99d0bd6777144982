// Package asynchook moves hook work off the hot path: events are queued to
// a small worker pool and dropped when the queue is full.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	client, _ := offcache.New[Items](offcache.Options[Items]{
//	    Fetcher: fetcher,
//	    Hooks:   hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/offcache"
	"github.com/unkn0wn-root/offcache/cachekey"
)

type Hooks struct {
	inner   offcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ offcache.Hooks = (*Hooks)(nil)

func New(inner offcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// DroppedEvents reports how many events were discarded.
func (h *Hooks) DroppedEvents() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Delivered(k cachekey.Key, p offcache.Policy, o offcache.Origin, err error) {
	h.try(func() { h.inner.Delivered(k, p, o, err) })
}
func (h *Hooks) Dropped(k cachekey.Key, p offcache.Policy, o offcache.Origin) {
	h.try(func() { h.inner.Dropped(k, p, o) })
}
func (h *Hooks) CacheHit(k cachekey.Key)  { h.try(func() { h.inner.CacheHit(k) }) }
func (h *Hooks) CacheMiss(k cachekey.Key) { h.try(func() { h.inner.CacheMiss(k) }) }
func (h *Hooks) CacheDecodeFailed(k cachekey.Key, err error) {
	h.try(func() { h.inner.CacheDecodeFailed(k, err) })
}
func (h *Hooks) WriteBack(k cachekey.Key, w bool) { h.try(func() { h.inner.WriteBack(k, w) }) }
func (h *Hooks) WriteBackFailed(k cachekey.Key, err error) {
	h.try(func() { h.inner.WriteBackFailed(k, err) })
}
func (h *Hooks) ConnectivityChanged(c bool) { h.try(func() { h.inner.ConnectivityChanged(c) }) }
func (h *Hooks) SelfHeal(k, s, r string)    { h.try(func() { h.inner.SelfHeal(k, s, r) }) }
func (h *Hooks) SetRejected(k, s string)    { h.try(func() { h.inner.SetRejected(k, s) }) }
func (h *Hooks) GenError(op string, err error) {
	h.try(func() { h.inner.GenError(op, err) })
}
