package offcache

import (
	"context"
	"net/http"
	"sync"

	"github.com/unkn0wn-root/offcache/cachekey"
	"github.com/unkn0wn-root/offcache/codec"
	"github.com/unkn0wn-root/offcache/connectivity"
	"github.com/unkn0wn-root/offcache/dispatch"
	"github.com/unkn0wn-root/offcache/log"
	"github.com/unkn0wn-root/offcache/request"
	"github.com/unkn0wn-root/offcache/store"
	"github.com/unkn0wn-root/offcache/transport"
)

type client[T any] struct {
	fetcher    transport.Fetcher
	decoder    codec.Codec[T]
	store      *store.Store
	monitor    *connectivity.Monitor
	dispatcher dispatch.Dispatcher
	ownsDisp   *dispatch.Serial

	restricted          bool
	synthesizeLocalMiss bool
	skipLocalFetch      bool

	log   log.Logger
	hooks Hooks

	onConn func(bool)

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

func newClient[T any](opts Options[T]) (*client[T], error) {
	if opts.Fetcher == nil {
		return nil, ErrNoFetcher
	}
	c := &client[T]{
		fetcher:             opts.Fetcher,
		decoder:             opts.Decoder,
		store:               opts.Store,
		monitor:             opts.Monitor,
		dispatcher:          opts.Dispatcher,
		restricted:          opts.Restricted,
		synthesizeLocalMiss: opts.SynthesizeLocalMiss,
		skipLocalFetch:      opts.SkipLocalFetch,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, log.Nop{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if c.decoder == nil {
		c.decoder = codec.NewJSONEnvelope[T]()
	}
	if c.dispatcher == nil {
		c.ownsDisp = dispatch.NewSerial(0)
		c.dispatcher = c.ownsDisp
	}
	if c.monitor != nil {
		c.onConn = func(v bool) { c.hooks.ConnectivityChanged(v) }
		if err := c.monitor.Subscribe(c.onConn); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *client[T]) connected() bool {
	return c.monitor == nil || c.monitor.Connected()
}

func (c *client[T]) Perform(ctx context.Context, d request.Descriptor, p Policy, fn func(Result[T])) *Call {
	ctx = context.WithoutCancel(ctx)
	key := cachekey.Derive(d)

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return c.rejectClosed(key, p, fn)
	}
	c.inflight.Add(1)
	c.mu.RUnlock()

	connected := c.connected()
	readCache := d.ShouldCache() && !connected && c.store != nil && !c.restricted
	fetch := !(c.skipLocalFetch && p == Local)

	// The write-back compares against the generation seen here, so a Clear
	// that lands while the fetch is in flight wins.
	var (
		gen      uint64
		writable bool
	)
	if fetch && c.store != nil && (d.ShouldCache() || c.restricted) {
		g, err := c.store.Snapshot(ctx, key)
		if err != nil {
			c.log.Warn("write-back disabled for call (snapshot failed)", Fields{"key": key.String(), "err": err})
		} else {
			gen, writable = g, true
		}
	}

	producers := 0
	if readCache {
		producers++
	}
	if fetch {
		producers++
	}
	c.log.Debug("perform", Fields{
		"key": key.String(), "policy": p.String(), "connected": connected,
		"cacheRead": readCache, "fetch": fetch,
	})

	agg := c.newAggregator(key, p, producers, fn)
	if readCache {
		go c.readCache(ctx, key, agg)
	}
	if fetch {
		go c.fetch(ctx, d, key, gen, writable, agg)
	}
	return agg.call
}

func (c *client[T]) rejectClosed(key cachekey.Key, p Policy, fn func(Result[T])) *Call {
	call := &Call{done: make(chan struct{})}
	r := Result[T]{Err: newError(KindCancelled, "client closed", nil), Origin: Network}
	c.hooks.Delivered(key, p, r.Origin, r.Err)
	if fn != nil {
		fn(r)
	}
	close(call.done)
	return call
}

// readCache is the cache producer. Every failure is a miss. Hooks fire
// after the offer is queued.
func (c *client[T]) readCache(ctx context.Context, key cachekey.Key, agg *aggregator[T]) {
	b, ok := c.store.Get(ctx, key)
	if !ok {
		agg.offer(Result[T]{}, false)
		c.hooks.CacheMiss(key)
		return
	}
	v, err := c.decoder.Decode(b)
	if err != nil {
		c.log.Debug("cached body does not decode", Fields{"key": key.String(), "err": err})
		agg.offer(Result[T]{}, false)
		c.hooks.CacheDecodeFailed(key, err)
		return
	}
	agg.offer(Result[T]{Value: v, Origin: Cache}, true)
	c.hooks.CacheHit(key)
}

// fetch is the network producer. It always yields a result.
func (c *client[T]) fetch(ctx context.Context, d request.Descriptor, key cachekey.Key, gen uint64, writable bool, agg *aggregator[T]) {
	resp, err := c.fetcher.Fetch(ctx, d)
	if err != nil {
		re := classified(err)
		c.log.Debug("fetch failed", Fields{"key": key.String(), "kind": re.Kind.String(), "err": err})
		agg.offer(Result[T]{Err: re, Origin: Network}, true)
		return
	}
	if resp.StatusCode == http.StatusUnauthorized {
		agg.offer(Result[T]{Err: newError(KindUnauthorized, "", nil), Origin: Network}, true)
		return
	}
	if len(resp.Body) == 0 {
		agg.offer(Result[T]{Err: newError(KindInvalidData, "empty body", nil), Origin: Network}, true)
		return
	}
	v, err := c.decoder.Decode(resp.Body)
	if err != nil {
		agg.offer(Result[T]{Err: newError(KindInvalidData, "", err), Origin: Network}, true)
		return
	}

	if writable {
		c.writeBack(ctx, key, resp.Body, gen)
	}
	agg.offer(Result[T]{Value: v, Origin: Network}, true)
}

func (c *client[T]) writeBack(ctx context.Context, key cachekey.Key, body []byte, gen uint64) {
	written, err := c.store.PutIfGen(ctx, key, body, gen)
	if err != nil {
		c.hooks.WriteBackFailed(key, err)
		c.log.Warn("write-back failed", Fields{"key": key.String(), "err": err})
		return
	}
	c.hooks.WriteBack(key, written)
}

func (c *client[T]) Do(ctx context.Context, d request.Descriptor, p Policy) <-chan Result[T] {
	ch := make(chan Result[T], p.deliveries())
	call := c.Perform(ctx, d, p, func(r Result[T]) { ch <- r })
	go func() {
		<-call.Done()
		close(ch)
	}()
	return ch
}

// Close does not close the Store or Monitor; they are owned by the caller.
func (c *client[T]) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.monitor != nil && c.onConn != nil {
		_ = c.monitor.Unsubscribe(c.onConn)
	}

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// In-flight calls still deliver; the owned dispatcher stops after them.
		if c.ownsDisp != nil {
			go func() {
				<-done
				c.ownsDisp.Close()
			}()
		}
		return ctx.Err()
	}
	if c.ownsDisp != nil {
		c.ownsDisp.Close()
	}
	return nil
}
