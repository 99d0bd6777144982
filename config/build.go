package config

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/offcache/genstore"
	"github.com/unkn0wn-root/offcache/log"
	"github.com/unkn0wn-root/offcache/provider"
	bcp "github.com/unkn0wn-root/offcache/provider/bigcache"
	bdp "github.com/unkn0wn-root/offcache/provider/badger"
	"github.com/unkn0wn-root/offcache/provider/memory"
	rdp "github.com/unkn0wn-root/offcache/provider/redis"
	rsp "github.com/unkn0wn-root/offcache/provider/ristretto"
	"github.com/unkn0wn-root/offcache/store"
)

// BuildStore wires the configured providers into a Store. Closing the store
// closes everything created here.
func BuildStore(ctx context.Context, cfg *Config, l log.Logger, hooks store.Hooks) (*store.Store, error) {
	opts := store.Options{
		Namespace: cfg.Namespace,
		TTL:       cfg.Store.TTL,
		Logger:    l,
		Hooks:     hooks,
	}

	switch cfg.Store.Driver {
	case "", "memory":
		opts.Durable = memory.New()
	case "badger":
		p, err := bdp.New(bdp.Config{Path: cfg.Store.Path, Prefix: cfg.Namespace + ":"})
		if err != nil {
			return nil, err
		}
		// Generations live in the same database, outside the prefix Clear
		// drops, so entries stay readable after a restart.
		gp, err := bdp.New(bdp.Config{DB: p.DB(), Prefix: "\x00gen:" + cfg.Namespace + ":"})
		if err != nil {
			return nil, errors.Join(err, p.Close(ctx))
		}
		gs, err := genstore.NewPersistent(gp)
		if err != nil {
			return nil, errors.Join(err, p.Close(ctx))
		}
		opts.Durable, opts.GenStore = p, gs
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Store.RedisAddr})
		p, err := rdp.New(rdp.Config{Client: rdb, Prefix: "offcache:" + cfg.Namespace + ":", CloseClient: true})
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		// Generations must be shared by every process reading the same keys.
		gs, err := genstore.NewRedis(rdb, cfg.Namespace, 0)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		opts.Durable, opts.GenStore = p, gs
	default:
		return nil, fmt.Errorf("config: unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.Front.Enabled {
		front, err := buildFront(ctx, cfg)
		if err != nil {
			return nil, errors.Join(err, opts.Durable.Close(ctx))
		}
		opts.Front = front
	}
	return store.New(opts), nil
}

func buildFront(ctx context.Context, cfg *Config) (provider.Provider, error) {
	mb := cfg.Store.Front.MaxSizeMB
	switch cfg.Store.Front.Driver {
	case "bigcache":
		return bcp.New(ctx, bcp.Config{LifeWindow: cfg.Store.TTL, HardMaxCacheSizeMB: mb})
	case "", "ristretto":
		maxCost := int64(mb) << 20
		return rsp.New(rsp.Config{NumCounters: maxCost / 100, MaxCost: maxCost, BufferItems: 64})
	}
	return nil, fmt.Errorf("config: unknown front driver %q", cfg.Store.Front.Driver)
}
