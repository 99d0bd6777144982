package offcache

import (
	"github.com/unkn0wn-root/offcache/cachekey"
	"github.com/unkn0wn-root/offcache/store"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The client calls them on hot paths. Hooks also satisfy store.Hooks so one
// value can observe both layers.
type Hooks interface {
	store.Hooks

	// A result crossed the callback boundary. err is nil on success.
	Delivered(key cachekey.Key, p Policy, o Origin, err error)
	// A produced result was filtered out by the policy.
	Dropped(key cachekey.Key, p Policy, o Origin)

	// Cache lookups issued while disconnected.
	CacheHit(key cachekey.Key)
	CacheMiss(key cachekey.Key)
	// A cached body no longer decodes; treated as a miss.
	CacheDecodeFailed(key cachekey.Key, err error)

	// Network body written back; written=false when a Clear or Invalidate
	// raced the fetch.
	WriteBack(key cachekey.Key, written bool)
	WriteBackFailed(key cachekey.Key, err error)

	ConnectivityChanged(connected bool)
}

// NopHooks is the default no-op
type NopHooks struct{ store.NopHooks }

func (NopHooks) Delivered(cachekey.Key, Policy, Origin, error) {}
func (NopHooks) Dropped(cachekey.Key, Policy, Origin)          {}
func (NopHooks) CacheHit(cachekey.Key)                         {}
func (NopHooks) CacheMiss(cachekey.Key)                        {}
func (NopHooks) CacheDecodeFailed(cachekey.Key, error)         {}
func (NopHooks) WriteBack(cachekey.Key, bool)                  {}
func (NopHooks) WriteBackFailed(cachekey.Key, error)           {}
func (NopHooks) ConnectivityChanged(bool)                      {}
