package genstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/offcache/provider"
)

var (
	ErrNilProvider = errors.New("genstore: nil provider")
	errGenRejected = errors.New("genstore: provider rejected generation write")
)

const persistentPrefix = "g:"

// Persistent keeps generations in a provider so they outlive the process,
// next to a durable stage that does too. It must be the only writer of its
// keys; use Redis to share generations between processes.
//
// The provider must not be the one the store clears: a Clear that dropped
// the counters would make entries written afterwards unreadable after a
// restart.
type Persistent struct {
	p provider.Provider

	mu   sync.Mutex
	gens map[string]uint64 // read-through copy of the stored counters
}

var _ GenStore = (*Persistent)(nil)

func NewPersistent(p provider.Provider) (*Persistent, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	return &Persistent{p: p, gens: make(map[string]uint64)}, nil
}

// load runs with s.mu held.
func (s *Persistent) load(ctx context.Context, k string) (uint64, error) {
	if g, ok := s.gens[k]; ok {
		return g, nil
	}
	raw, ok, err := s.p.Get(ctx, persistentPrefix+k)
	if err != nil {
		return 0, fmt.Errorf("genstore: load %q: %w", k, err)
	}
	var g uint64
	if ok {
		if len(raw) != 8 {
			return 0, fmt.Errorf("genstore: corrupt counter %q (%d bytes)", k, len(raw))
		}
		g = binary.BigEndian.Uint64(raw)
	}
	s.gens[k] = g
	return g, nil
}

func (s *Persistent) Snapshot(ctx context.Context, k string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, k)
}

func (s *Persistent) SnapshotMany(ctx context.Context, ks []string) (map[string]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(ks))
	for _, k := range ks {
		g, err := s.load(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = g
	}
	return out, nil
}

// Bump stores the new counter before publishing it to readers.
func (s *Persistent) Bump(ctx context.Context, k string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load(ctx, k)
	if err != nil {
		return 0, err
	}
	next := cur + 1
	ok, err := s.p.Set(ctx, persistentPrefix+k, binary.BigEndian.AppendUint64(nil, next), 8, 0)
	if err != nil {
		return 0, fmt.Errorf("genstore: bump %q: %w", k, err)
	}
	if !ok {
		return 0, errGenRejected
	}
	s.gens[k] = next
	return next, nil
}

// Cleanup forgets the cached copies; the stored counters are kept.
func (s *Persistent) Cleanup(time.Duration) {
	s.mu.Lock()
	s.gens = make(map[string]uint64)
	s.mu.Unlock()
}

// Close is a no-op; the provider belongs to the caller.
func (s *Persistent) Close(context.Context) error { return nil }
