// Package metrics exposes register outcomes as Prometheus metrics.
//
// The register core classifies every mutation with a status; this package
// counts those classifications so stale-write rates and holder population
// are observable without touching the mutation hot path beyond a counter
// increment. A nil *Collector disables collection entirely.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the register's Prometheus metrics.
type Collector struct {
	mutations *prometheus.CounterVec
	stale     prometheus.Counter
	holders   prometheus.Gauge
	evicted   prometheus.Counter
}

// NewCollector creates a Collector registered with reg. If reg is nil,
// prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multireg",
			Name:      "mutations_total",
			Help:      "Mutations applied to the register, by outcome.",
		}, []string{"outcome"}),

		stale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "multireg",
			Name:      "stale_total",
			Help:      "Stale or duplicate mutations absorbed as no-ops.",
		}),

		holders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "multireg",
			Name:      "holders",
			Help:      "Entities currently held in the register.",
		}),

		evicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "multireg",
			Name:      "evicted_copies_total",
			Help:      "Copies removed by source eviction passes.",
		}),
	}
}

// Mutation records one classified mutation outcome. The outcome label is
// the status name (AddedFirst, AddExpired, ...).
func (c *Collector) Mutation(outcome string, expired bool) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(outcome).Inc()
	if expired {
		c.stale.Inc()
	}
}

// HolderCreated records a holder entering the store.
func (c *Collector) HolderCreated() {
	if c == nil {
		return
	}
	c.holders.Inc()
}

// HolderDestroyed records a holder leaving the store.
func (c *Collector) HolderDestroyed() {
	if c == nil {
		return
	}
	c.holders.Dec()
}

// Evicted records copies removed by an eviction pass.
func (c *Collector) Evicted(count int) {
	if c == nil {
		return
	}
	c.evicted.Add(float64(count))
}
