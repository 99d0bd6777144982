// Package promhook exports offcache hook events as Prometheus metrics.
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/offcache"
	"github.com/unkn0wn-root/offcache/cachekey"
)

// Hooks counts events. Keys are never used as labels.
type Hooks struct {
	deliveries  *prometheus.CounterVec
	drops       *prometheus.CounterVec
	cacheReads  *prometheus.CounterVec
	writeBacks  *prometheus.CounterVec
	selfHeals   *prometheus.CounterVec
	rejects     *prometheus.CounterVec
	genErrors   *prometheus.CounterVec
	connected   prometheus.Gauge
	connChanges prometheus.Counter
}

var _ offcache.Hooks = (*Hooks)(nil)

// New registers the collectors on reg; a nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "offcache"
	}
	f := promauto.With(reg)
	return &Hooks{
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Results delivered to callers by policy, origin and outcome",
		}, []string{"policy", "origin", "outcome"}),
		drops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_total",
			Help:      "Results filtered out by the delivery policy",
		}, []string{"policy", "origin"}),
		cacheReads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_reads_total",
			Help:      "Offline cache lookups by status",
		}, []string{"status"}), // hit, miss, decode_error
		writeBacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_backs_total",
			Help:      "Network bodies written back to the cache by status",
		}, []string{"status"}), // written, skipped, failed
		selfHeals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_self_heals_total",
			Help:      "Entries deleted on read by stage and reason",
		}, []string{"stage", "reason"}),
		rejects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_set_rejected_total",
			Help:      "Provider writes rejected under pressure by stage",
		}, []string{"stage"}),
		genErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_gen_errors_total",
			Help:      "Generation store failures by operation",
		}, []string{"op"}),
		connected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the network is believed reachable",
		}),
		connChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connectivity_events_total",
			Help:      "Connectivity notifications received",
		}),
	}
}

func (h *Hooks) Delivered(_ cachekey.Key, p offcache.Policy, o offcache.Origin, err error) {
	outcome := "ok"
	if err != nil {
		outcome = offcache.Classify(err).String()
	}
	h.deliveries.WithLabelValues(p.String(), o.String(), outcome).Inc()
}

func (h *Hooks) Dropped(_ cachekey.Key, p offcache.Policy, o offcache.Origin) {
	h.drops.WithLabelValues(p.String(), o.String()).Inc()
}

func (h *Hooks) CacheHit(cachekey.Key)  { h.cacheReads.WithLabelValues("hit").Inc() }
func (h *Hooks) CacheMiss(cachekey.Key) { h.cacheReads.WithLabelValues("miss").Inc() }
func (h *Hooks) CacheDecodeFailed(cachekey.Key, error) {
	h.cacheReads.WithLabelValues("decode_error").Inc()
}

func (h *Hooks) WriteBack(_ cachekey.Key, written bool) {
	if written {
		h.writeBacks.WithLabelValues("written").Inc()
		return
	}
	h.writeBacks.WithLabelValues("skipped").Inc()
}

func (h *Hooks) WriteBackFailed(cachekey.Key, error) { h.writeBacks.WithLabelValues("failed").Inc() }

func (h *Hooks) ConnectivityChanged(connected bool) {
	h.connChanges.Inc()
	if connected {
		h.connected.Set(1)
	} else {
		h.connected.Set(0)
	}
}

func (h *Hooks) SelfHeal(_, stage, reason string) { h.selfHeals.WithLabelValues(stage, reason).Inc() }
func (h *Hooks) SetRejected(_, stage string)      { h.rejects.WithLabelValues(stage).Inc() }
func (h *Hooks) GenError(op string, _ error)      { h.genErrors.WithLabelValues(op).Inc() }
