package promhook

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/offcache"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg, "test")

	h.Delivered("k", offcache.Remote, offcache.Network, nil)
	h.Delivered("k", offcache.Remote, offcache.Network, offcache.ErrUnauthorized)
	h.Dropped("k", offcache.Local, offcache.Network)
	h.CacheHit("k")
	h.CacheMiss("k")
	h.CacheMiss("k")
	h.WriteBack("k", true)
	h.WriteBack("k", false)
	h.WriteBackFailed("k", errors.New("x"))
	h.SelfHeal("sk", "durable", "corrupt")
	h.ConnectivityChanged(true)

	checks := []struct {
		c    prometheus.Collector
		want float64
	}{
		{h.deliveries.WithLabelValues("remote", "network", "ok"), 1},
		{h.deliveries.WithLabelValues("remote", "network", "unauthorized"), 1},
		{h.drops.WithLabelValues("local", "network"), 1},
		{h.cacheReads.WithLabelValues("hit"), 1},
		{h.cacheReads.WithLabelValues("miss"), 2},
		{h.writeBacks.WithLabelValues("written"), 1},
		{h.writeBacks.WithLabelValues("skipped"), 1},
		{h.writeBacks.WithLabelValues("failed"), 1},
		{h.selfHeals.WithLabelValues("durable", "corrupt"), 1},
		{h.connected, 1},
	}
	for i, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("check %d: got %v want %v", i, got, c.want)
		}
	}
	if n := testutil.CollectAndCount(h.cacheReads); n != 2 {
		t.Errorf("cache read series = %d", n)
	}
}
