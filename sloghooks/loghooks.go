// Package sloghooks logs offcache hook events to a *slog.Logger with
// optional sampling of the noisy ones.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/offcache"
	"github.com/unkn0wn-root/offcache/cachekey"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	DeliveredEvery uint64
	CacheReadEvery uint64
	SelfHealEvery  uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	deliveredCtr atomic.Uint64
	cacheReadCtr atomic.Uint64
	selfHealCtr  atomic.Uint64
}

var _ offcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Delivered(k cachekey.Key, p offcache.Policy, o offcache.Origin, err error) {
	if h.l == nil || !sample(h.opts.DeliveredEvery, &h.deliveredCtr) {
		return
	}
	if err != nil {
		h.l.Info("offcache.delivered",
			"key", h.redact(k.String()),
			"policy", p.String(),
			"origin", o.String(),
			"err", err)
		return
	}
	h.l.Debug("offcache.delivered",
		"key", h.redact(k.String()),
		"policy", p.String(),
		"origin", o.String())
}

func (h *Hooks) Dropped(k cachekey.Key, p offcache.Policy, o offcache.Origin) {
	if h.l == nil {
		return
	}
	h.l.Debug("offcache.dropped",
		"key", h.redact(k.String()),
		"policy", p.String(),
		"origin", o.String())
}

func (h *Hooks) CacheHit(k cachekey.Key)  { h.cacheRead(k, "hit") }
func (h *Hooks) CacheMiss(k cachekey.Key) { h.cacheRead(k, "miss") }

func (h *Hooks) cacheRead(k cachekey.Key, status string) {
	if h.l == nil || !sample(h.opts.CacheReadEvery, &h.cacheReadCtr) {
		return
	}
	h.l.Debug("offcache.cache_read", "key", h.redact(k.String()), "status", status)
}

func (h *Hooks) CacheDecodeFailed(k cachekey.Key, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("offcache.cache_decode_failed", "key", h.redact(k.String()), "err", err)
}

func (h *Hooks) WriteBack(k cachekey.Key, written bool) {
	if h.l == nil || written {
		return
	}
	h.l.Debug("offcache.write_back_skipped", "key", h.redact(k.String()))
}

func (h *Hooks) WriteBackFailed(k cachekey.Key, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("offcache.write_back_failed", "key", h.redact(k.String()), "err", err)
}

func (h *Hooks) ConnectivityChanged(connected bool) {
	if h.l == nil {
		return
	}
	h.l.Info("offcache.connectivity", "connected", connected)
}

func (h *Hooks) SelfHeal(storageKey, stage, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("offcache.self_heal",
		"key", h.redact(storageKey),
		"stage", stage,
		"reason", reason)
}

func (h *Hooks) SetRejected(storageKey, stage string) {
	if h.l == nil {
		return
	}
	h.l.Warn("offcache.provider_set_rejected", "key", h.redact(storageKey), "stage", stage)
}

func (h *Hooks) GenError(op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("offcache.gen_error", "op", op, "err", err)
}
