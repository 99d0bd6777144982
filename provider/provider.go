// Package provider defines the byte stores behind the response cache.
//
// Implementations MUST be byte-for-byte transparent: Get returns exactly the
// []byte previously passed to Set for the key. The store frames its own
// values; anything under its keyspace that does not parse is treated as
// corruption and deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs, safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (0 = no expiry). May ignore cost.
	// Returns ok=false when the store rejected the write under pressure.
	// A successful Set is visible to the next Get.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Clearer is implemented by providers that can drop everything they hold
// for the store. Stores without it rely on generation bumps alone.
type Clearer interface {
	Clear(ctx context.Context) error
}
