package offcache

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/offcache/cachekey"
)

// Call is the handle of one Perform.
type Call struct {
	done chan struct{}
}

// Done is closed once both producers finished and every delivery or drop
// they caused has run.
func (c *Call) Done() <-chan struct{} { return c.done }

// Wait blocks until the call is done or ctx ends.
func (c *Call) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// aggregator joins the producers of one call and applies the delivery
// filter. Offers run on the dispatcher; connectivity is sampled there.
type aggregator[T any] struct {
	cl     *client[T]
	key    cachekey.Key
	policy Policy
	fn     func(Result[T])
	call   *Call

	mu        sync.Mutex
	pending   int
	delivered int
	cbMu      sync.Mutex // callbacks of one call never overlap, even inline
}

func (c *client[T]) newAggregator(key cachekey.Key, p Policy, producers int, fn func(Result[T])) *aggregator[T] {
	a := &aggregator[T]{
		cl:      c,
		key:     key,
		policy:  p,
		fn:      fn,
		call:    &Call{done: make(chan struct{})},
		pending: producers,
	}
	if producers == 0 {
		c.dispatcher.Dispatch(a.finish)
	}
	return a
}

// offer hands a producer's outcome to the dispatcher. has=false means the
// producer finished without a result (cache miss).
func (a *aggregator[T]) offer(r Result[T], has bool) {
	a.cl.dispatcher.Dispatch(func() {
		if has {
			a.deliver(r)
		}
		a.mu.Lock()
		a.pending--
		last := a.pending == 0
		a.mu.Unlock()
		if last {
			a.finish()
		}
	})
}

func (a *aggregator[T]) deliver(r Result[T]) {
	a.mu.Lock()
	ok := a.admit(r.Origin)
	if ok {
		a.delivered++
	}
	a.mu.Unlock()

	if !ok {
		a.cl.hooks.Dropped(a.key, a.policy, r.Origin)
		return
	}
	a.invoke(r)
}

// admit is the delivery filter; a.mu held.
func (a *aggregator[T]) admit(o Origin) bool {
	if o == Cache && a.cl.connected() {
		return false
	}
	switch a.policy {
	case Local:
		return o == Cache
	case Remote:
		return o == Network
	case LocalOrRemote:
		return a.delivered == 0
	case LocalAndRemote:
		return a.delivered < 2
	}
	return false
}

func (a *aggregator[T]) invoke(r Result[T]) {
	a.cbMu.Lock()
	defer a.cbMu.Unlock()
	a.cl.hooks.Delivered(a.key, a.policy, r.Origin, r.Err)
	if a.fn != nil {
		a.fn(r)
	}
}

func (a *aggregator[T]) finish() {
	if a.policy == Local && a.cl.synthesizeLocalMiss {
		a.mu.Lock()
		none := a.delivered == 0
		if none {
			a.delivered++
		}
		a.mu.Unlock()
		if none {
			a.invoke(Result[T]{
				Err:    newError(KindCacheRule, "no cached response", nil),
				Origin: Cache,
			})
		}
	}
	close(a.call.done)
	a.cl.inflight.Done()
}
