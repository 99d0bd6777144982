package offcache

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/offcache/codec"
	"github.com/unkn0wn-root/offcache/connectivity"
	"github.com/unkn0wn-root/offcache/dispatch"
	"github.com/unkn0wn-root/offcache/log"
	"github.com/unkn0wn-root/offcache/request"
	"github.com/unkn0wn-root/offcache/store"
	"github.com/unkn0wn-root/offcache/transport"
)

type (
	Logger = log.Logger
	Fields = log.Fields
)

// Client reconciles the persisted response cache with a live fetch and
// delivers results under a Policy. T is the decoded response type.
type Client[T any] interface {
	// Perform starts a call and returns immediately. fn runs on the
	// client's dispatcher, never concurrently with itself for one call, and
	// not at all after the returned Call is done. The caller's ctx supplies
	// values only: cancelling it does not stop the call.
	Perform(ctx context.Context, d request.Descriptor, p Policy, fn func(Result[T])) *Call

	// Do is Perform feeding a channel sized for the policy (1, or 2 for
	// LocalAndRemote). The channel is closed when the call is done.
	Do(ctx context.Context, d request.Descriptor, p Policy) <-chan Result[T]

	// Close waits for in-flight calls and stops the owned dispatcher.
	Close(ctx context.Context) error
}

// Options wire the collaborators of a Client. Only Fetcher is required.
type Options[T any] struct {
	Fetcher transport.Fetcher
	Decoder codec.Codec[T] // nil => codec.NewJSONEnvelope[T]()

	// Store persists successful bodies; nil disables the cache entirely.
	Store *store.Store
	// Monitor supplies the connectivity belief; nil => always connected.
	Monitor *connectivity.Monitor
	// Dispatcher runs callbacks; nil => a dispatch.Serial owned by the client.
	Dispatcher dispatch.Dispatcher

	// Restricted marks an extension-like context: the cache is never read,
	// and decoded network bodies are always written back.
	Restricted bool
	// SynthesizeLocalMiss makes a Local call that delivered nothing end with
	// one KindCacheRule failure (Origin Cache) instead of no callback.
	SynthesizeLocalMiss bool
	// SkipLocalFetch skips the network attempt for Local calls.
	SkipLocalFetch bool

	Logger Logger // if nil, log.Nop is used
	Hooks  Hooks  // if nil, NopHooks is used
}

var ErrNoFetcher = errors.New("offcache: fetcher is required")

func New[T any](opts Options[T]) (Client[T], error) {
	c, err := newClient[T](opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}
