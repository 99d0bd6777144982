// Package badger adapts dgraph-io/badger as the durable (writer) stage: the
// on-disk store that survives restarts and feeds offline reads.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	pr "github.com/unkn0wn-root/offcache/provider"
)

type Provider struct {
	db     *badgerdb.DB
	prefix []byte
	ownsDB bool
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Clearer  = (*Provider)(nil)
)

type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// Prefix scopes keys so several stores can share one database.
	Prefix string
	// DB reuses an already open database; Path and InMemory are ignored.
	DB *badgerdb.DB
}

func New(cfg Config) (*Provider, error) {
	p := &Provider{db: cfg.DB, prefix: []byte(cfg.Prefix)}
	if p.db != nil {
		return p, nil
	}

	opts := badgerdb.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else if cfg.Path == "" {
		return nil, errors.New("badger provider: path required")
	}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger provider: open: %w", err)
	}
	p.db = db
	p.ownsDB = true
	return p, nil
}

func (p *Provider) key(k string) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	out = append(out, p.prefix...)
	return append(out, k...)
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := p.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(p.key(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := p.db.Update(func(txn *badgerdb.Txn) error {
		e := badgerdb.NewEntry(p.key(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	return p.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(p.key(key))
	})
}

// Clear drops every key under the prefix, or the whole database when no
// prefix is configured.
func (p *Provider) Clear(context.Context) error {
	if len(p.prefix) == 0 {
		return p.db.DropAll()
	}
	return p.db.DropPrefix(p.prefix)
}

// DB exposes the database so another provider can share it under a
// different prefix.
func (p *Provider) DB() *badgerdb.DB { return p.db }

func (p *Provider) Close(context.Context) error {
	if !p.ownsDB {
		return nil
	}
	return p.db.Close()
}
