// Package metrics counts stash operations with prometheus.
package metrics

import (
	"context"

	"github.com/influxdata/stash"
	"github.com/prometheus/client_golang/prometheus"
)

// Name of the plugin.
const Name = "metrics"

// Lookup results.
const (
	LabelHit  = "hit"
	LabelMiss = "miss"
)

// Metrics holds the counters fed by the plugin.
type Metrics struct {
	Operations *prometheus.CounterVec
	Lookups    *prometheus.CounterVec
}

// New returns unregistered counters.
func New() *Metrics {
	const namespace = "stash"

	return &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of operations that completed successfully",
		}, []string{"operation"}),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Number of operations that found or missed the addressed item",
		}, []string{"operation", "result"}),
	}
}

// PrometheusCollectors satisfies the prom.PrometheusCollector interface.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{m.Operations, m.Lookups}
}

func (m *Metrics) observe(op string, found bool) {
	m.Operations.WithLabelValues(op).Inc()
	result := LabelMiss
	if found {
		result = LabelHit
	}
	m.Lookups.WithLabelValues(op, result).Inc()
}

// Plugin returns the after hooks counting into m. They run after the
// adapter succeeded, so failed operations are not counted.
func (m *Metrics) Plugin() stash.Plugin {
	return stash.Plugin{
		Name: Name,
		AfterSetItem: func(context.Context, stash.SetItemResultArgs) (stash.SetItemResultUpdate, error) {
			m.Operations.WithLabelValues("SetItem").Inc()
			return stash.SetItemResultUpdate{}, nil
		},
		AfterGetItem: func(_ context.Context, args stash.GetItemResultArgs) (stash.GetItemResultUpdate, error) {
			m.observe("GetItem", args.Item != nil)
			return stash.GetItemResultUpdate{}, nil
		},
		AfterHasItem: func(_ context.Context, args stash.ResultArgs) (stash.ResultUpdate, error) {
			m.observe("HasItem", args.Result)
			return stash.ResultUpdate{}, nil
		},
		AfterRemoveItem: func(_ context.Context, args stash.ResultArgs) (stash.ResultUpdate, error) {
			m.observe("RemoveItem", args.Result)
			return stash.ResultUpdate{}, nil
		},
		AfterSetExtra: func(_ context.Context, args stash.ExtraResultArgs) (stash.ExtraResultUpdate, error) {
			m.observe("SetExtra", args.Extra != nil)
			return stash.ExtraResultUpdate{}, nil
		},
		AfterGetExtra: func(_ context.Context, args stash.ExtraResultArgs) (stash.ExtraResultUpdate, error) {
			m.observe("GetExtra", args.Extra != nil)
			return stash.ExtraResultUpdate{}, nil
		},
	}
}
