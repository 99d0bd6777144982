// Package genstore keeps the generation counters the response store uses to
// make Clear and Invalidate cheap: an entry is only served while the counters
// it was written under are still current.
package genstore

import (
	"context"
	"time"
)

// EpochKey is the reserved counter bumped by a namespace-wide clear.
// Storage keys never contain control characters, so it cannot collide.
const EpochKey = "\x00epoch"

// GenStore abstracts where generations live.
// Use Local (default) for in-process gens, Persistent to keep them across
// restarts of a single process, or Redis to share them between processes
// that share a durable provider.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// SnapshotMany returns gens for many keys; missing => 0.
	SnapshotMany(ctx context.Context, keys []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

// Effective returns the generation an entry for key is valid under: the
// namespace epoch in the high 32 bits, the key's own counter in the low 32.
// A sum would let one Invalidate and one Clear land on the same value.
func Effective(ctx context.Context, s GenStore, key string) (uint64, error) {
	m, err := s.SnapshotMany(ctx, []string{EpochKey, key})
	if err != nil {
		return 0, err
	}
	return m[EpochKey]<<32 | m[key]&0xFFFFFFFF, nil
}
