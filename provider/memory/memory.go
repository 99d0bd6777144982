// Package memory is an in-process map provider. It is the default durable
// stage when nothing else is configured and the reference fake in tests.
package memory

import (
	"context"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/offcache/provider"
)

type item struct {
	b   []byte
	exp time.Time
}

type Provider struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Clearer  = (*Provider)(nil)
)

func New() *Provider {
	return &Provider{items: make(map[string]item), now: time.Now}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	it, ok := p.items[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !it.exp.IsZero() && !p.now().Before(it.exp) {
		p.mu.Lock()
		if cur, ok := p.items[key]; ok && cur.exp.Equal(it.exp) {
			delete(p.items, key)
		}
		p.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), it.b...), true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	it := item{b: append([]byte(nil), value...)}
	if ttl > 0 {
		it.exp = p.now().Add(ttl)
	}
	p.mu.Lock()
	p.items[key] = it
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.items, key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) Clear(context.Context) error {
	p.mu.Lock()
	p.items = make(map[string]item)
	p.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

func (p *Provider) Close(context.Context) error { return nil }
