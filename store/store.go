// Package store is the persisted response cache.
//
// Writes are two-phase: under the writer mutex an entry is committed to the
// Durable provider (writer stage), then propagated to the optional Front
// provider (reader stage), and only then acknowledged. Reads try Front, then
// Durable, warming Front on a durable hit. Every entry is framed with the
// generation it was written under; Clear and Invalidate bump generations so
// older entries stop being served without scanning providers.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/offcache/cachekey"
	"github.com/unkn0wn-root/offcache/genstore"
	"github.com/unkn0wn-root/offcache/internal/wire"
	"github.com/unkn0wn-root/offcache/log"
	"github.com/unkn0wn-root/offcache/provider"
	"github.com/unkn0wn-root/offcache/provider/memory"
)

const (
	defaultNamespace    = "default"
	defaultSweep        = time.Hour
	defaultGenRetention = 30 * 24 * time.Hour
)

// Options configure a Store. The zero value is an in-memory store without
// a front stage.
type Options struct {
	Namespace string            // "" => "default"
	Durable   provider.Provider // writer stage; nil => in-memory
	Front     provider.Provider // reader stage; nil => none
	GenStore  genstore.GenStore // nil => genstore.Local owned by the store

	TTL             time.Duration // 0 => no expiry
	CleanupInterval time.Duration // Local genstore sweep; 0 => 1h
	GenRetention    time.Duration // 0 => 30d

	Logger log.Logger
	Hooks  Hooks
}

// Entry is a cached response body with its write metadata.
type Entry struct {
	Payload  []byte
	Gen      uint64
	StoredAt time.Time
}

type Store struct {
	ns      string
	durable provider.Provider
	front   provider.Provider
	gen     genstore.GenStore
	ownsGen bool
	ttl     time.Duration
	log     log.Logger
	hooks   Hooks
	now     func() time.Time

	mu     sync.Mutex    // writer stage
	writes atomic.Uint64 // bumped by every committed write, guards front fills
	fills  singleflight.Group
	closed atomic.Bool
}

func New(opts Options) *Store {
	s := &Store{
		ns:      coalesce(opts.Namespace, defaultNamespace),
		durable: opts.Durable,
		front:   opts.Front,
		gen:     opts.GenStore,
		ttl:     opts.TTL,
		log:     log.OrNop(opts.Logger),
		hooks:   opts.Hooks,
		now:     time.Now,
	}
	if s.durable == nil {
		s.durable = memory.New()
	}
	if s.hooks == nil {
		s.hooks = NopHooks{}
	}
	if s.gen == nil {
		s.gen = genstore.NewLocal(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.GenRetention, defaultGenRetention),
		)
		s.ownsGen = true
	}
	return s
}

func (s *Store) storageKey(k cachekey.Key) string {
	return "r:" + s.ns + ":" + k.Storage()
}

// Snapshot returns the generation a write for k must observe to succeed.
func (s *Store) Snapshot(ctx context.Context, k cachekey.Key) (uint64, error) {
	g, err := genstore.Effective(ctx, s.gen, k.Storage())
	if err != nil {
		s.hooks.GenError("snapshot", err)
		return 0, err
	}
	return g, nil
}

// Get returns the stored body for k. Absence, staleness, corruption and
// provider errors all read as a miss.
func (s *Store) Get(ctx context.Context, k cachekey.Key) ([]byte, bool) {
	e, ok := s.Entry(ctx, k)
	return e.Payload, ok
}

// Entry is Get with write metadata.
func (s *Store) Entry(ctx context.Context, k cachekey.Key) (Entry, bool) {
	if s.closed.Load() {
		return Entry{}, false
	}
	// Sampled before any read: a reader only joins a fill that started
	// after the last write it could have observed as acknowledged.
	seq := s.writes.Load()
	want, err := s.Snapshot(ctx, k)
	if err != nil {
		s.log.Warn("store snapshot failed", log.Fields{"key": k.String(), "err": err})
		return Entry{}, false
	}
	sk := s.storageKey(k)

	if s.front != nil {
		if e, ok := s.read(ctx, s.front, "front", sk, k, want); ok {
			return e, true
		}
	}

	fk := sk + "|" + strconv.FormatUint(want, 10) + "|" + strconv.FormatUint(seq, 10)
	v, _, shared := s.fills.Do(fk, func() (any, error) {
		e, ok := s.read(ctx, s.durable, "durable", sk, k, want)
		if !ok {
			return nil, nil
		}
		if s.front != nil {
			s.fillFront(ctx, sk, k, e, seq)
		}
		return e, nil
	})
	e, ok := v.(Entry)
	if !ok {
		return Entry{}, false
	}
	if shared {
		e.Payload = append([]byte(nil), e.Payload...)
	}
	return e, true
}

func (s *Store) read(ctx context.Context, p provider.Provider, stage, sk string, k cachekey.Key, want uint64) (Entry, bool) {
	raw, ok, err := p.Get(ctx, sk)
	if err != nil {
		s.log.Warn("store read failed", log.Fields{"key": k.String(), "stage": stage, "err": err})
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	we, err := wire.Decode(raw)
	switch {
	case err != nil:
		s.heal(ctx, p, stage, sk, "corrupt")
		return Entry{}, false
	case we.Key != k.String():
		s.heal(ctx, p, stage, sk, "key_mismatch")
		return Entry{}, false
	case we.Gen < want:
		s.heal(ctx, p, stage, sk, "gen_mismatch")
		return Entry{}, false
	case we.Gen > want:
		// written after our snapshot; leave it for the next reader
		return Entry{}, false
	}
	return Entry{Payload: we.Payload, Gen: we.Gen, StoredAt: we.StoredAt}, true
}

func (s *Store) heal(ctx context.Context, p provider.Provider, stage, sk, reason string) {
	_ = p.Del(ctx, sk)
	s.hooks.SelfHeal(sk, stage, reason)
	s.log.Debug("store self-heal", log.Fields{"storageKey": sk, "stage": stage, "reason": reason})
}

// fillFront copies a durable hit into the front stage unless a write
// committed since the durable read began.
func (s *Store) fillFront(ctx context.Context, sk string, k cachekey.Key, e Entry, seq uint64) {
	raw, err := wire.Encode(wire.Entry{Key: k.String(), Gen: e.Gen, StoredAt: e.StoredAt, Payload: e.Payload})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writes.Load() != seq {
		return
	}
	if ok, err := s.front.Set(ctx, sk, raw, int64(len(raw)), s.ttl); err != nil || !ok {
		s.hooks.SetRejected(sk, "front")
	}
}

// Put stores b under k at the current generation.
func (s *Store) Put(ctx context.Context, k cachekey.Key, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.Snapshot(ctx, k)
	if err != nil {
		return err
	}
	return s.commit(ctx, k, b, g)
}

// PutIfGen stores b only while k's generation still equals observed, so a
// Clear or Invalidate that raced the producer of b wins. It reports whether
// the write happened.
func (s *Store) PutIfGen(ctx context.Context, k cachekey.Key, b []byte, observed uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.Snapshot(ctx, k)
	if err != nil {
		return false, err
	}
	if g != observed {
		s.log.Debug("PutIfGen skipped (gen mismatch)", log.Fields{"key": k.String(), "obs": observed, "cur": g})
		return false, nil
	}
	if err := s.commit(ctx, k, b, g); err != nil {
		return false, err
	}
	return true, nil
}

// commit runs with s.mu held.
func (s *Store) commit(ctx context.Context, k cachekey.Key, b []byte, g uint64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	sk := s.storageKey(k)
	raw, err := wire.Encode(wire.Entry{Key: k.String(), Gen: g, StoredAt: s.now(), Payload: b})
	if err != nil {
		return err
	}

	ok, err := s.durable.Set(ctx, sk, raw, int64(len(raw)), s.ttl)
	if err != nil {
		return fmt.Errorf("store: durable write: %w", err)
	}
	if !ok {
		s.hooks.SetRejected(sk, "durable")
		return ErrRejected
	}
	s.writes.Add(1)

	if s.front == nil {
		return nil
	}
	ok, err = s.front.Set(ctx, sk, raw, int64(len(raw)), s.ttl)
	if err == nil && ok {
		return nil
	}
	// The front stage must not keep serving the previous body.
	s.hooks.SetRejected(sk, "front")
	if derr := s.front.Del(ctx, sk); derr != nil {
		return fmt.Errorf("store: front stage holds stale entry: %w", errors.Join(err, derr))
	}
	return nil
}

// Invalidate hides k's entry from readers and deletes it best-effort.
func (s *Store) Invalidate(ctx context.Context, k cachekey.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := s.storageKey(k)

	_, bumpErr := s.gen.Bump(ctx, k.Storage())
	if bumpErr != nil {
		s.hooks.GenError("bump", bumpErr)
	}
	delErr := s.durable.Del(ctx, sk)
	if s.front != nil {
		delErr = errors.Join(delErr, s.front.Del(ctx, sk))
	}
	s.writes.Add(1)

	if bumpErr != nil {
		return &InvalidateError{Key: k.String(), BumpErr: bumpErr, DelErr: delErr}
	}
	if delErr != nil {
		s.log.Warn("invalidate: delete failed", log.Fields{"key": k.String(), "err": delErr})
	}
	return nil
}

// Clear hides every entry of the namespace and physically drops what the
// providers can clear.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ce := &ClearError{}
	if _, err := s.gen.Bump(ctx, genstore.EpochKey); err != nil {
		s.hooks.GenError("bump", err)
		ce.BumpErr = err
	}
	if c, ok := s.durable.(provider.Clearer); ok {
		ce.DurableErr = c.Clear(ctx)
	}
	if c, ok := s.front.(provider.Clearer); ok {
		ce.FrontErr = c.Clear(ctx)
	}
	s.writes.Add(1)

	if ce.BumpErr != nil {
		return ce
	}
	if ce.DurableErr != nil || ce.FrontErr != nil {
		s.log.Warn("clear: physical clear failed", log.Fields{"durable": ce.DurableErr, "front": ce.FrontErr})
	}
	s.log.Debug("store cleared", log.Fields{"ns": s.ns})
	return nil
}

// Close releases the providers and, when the store created it, the
// generation store. Further writes fail with ErrClosed; reads miss.
func (s *Store) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.ownsGen {
		errs = append(errs, s.gen.Close(ctx))
	}
	if s.front != nil {
		errs = append(errs, s.front.Close(ctx))
	}
	errs = append(errs, s.durable.Close(ctx))
	return errors.Join(errs...)
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
