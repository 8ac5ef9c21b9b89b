package metrics_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/inmem"
	"github.com/influxdata/stash/plugins/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPlugin(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(m.PrometheusCollectors()...)

	s := stash.New(zaptest.NewLogger(t), inmem.NewAdapter())
	s.RegisterPlugins(m.Plugin())

	_, err := s.SetItem(ctx, "key", "value", nil)
	require.NoError(t, err)
	_, err = s.GetItem(ctx, "key")
	require.NoError(t, err)
	_, err = s.GetItem(ctx, "missing")
	require.NoError(t, err)
	_, err = s.HasItem(ctx, "missing")
	require.NoError(t, err)
	_, err = s.SetExtra(ctx, "missing", stash.Extra{})
	require.NoError(t, err)
	_, err = s.GetExtra(ctx, "key")
	require.NoError(t, err)
	_, err = s.RemoveItem(ctx, "key")
	require.NoError(t, err)

	// failed operations are not counted
	_, err = s.SetItem(ctx, "bad key", "value", nil)
	require.Error(t, err)

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP stash_lookups_total Number of operations that found or missed the addressed item
# TYPE stash_lookups_total counter
stash_lookups_total{operation="GetExtra",result="hit"} 1
stash_lookups_total{operation="GetItem",result="hit"} 1
stash_lookups_total{operation="GetItem",result="miss"} 1
stash_lookups_total{operation="HasItem",result="miss"} 1
stash_lookups_total{operation="RemoveItem",result="hit"} 1
stash_lookups_total{operation="SetExtra",result="miss"} 1
# HELP stash_operations_total Number of operations that completed successfully
# TYPE stash_operations_total counter
stash_operations_total{operation="GetExtra"} 1
stash_operations_total{operation="GetItem"} 2
stash_operations_total{operation="HasItem"} 1
stash_operations_total{operation="RemoveItem"} 1
stash_operations_total{operation="SetExtra"} 1
stash_operations_total{operation="SetItem"} 1
`)))
}

func TestPlugin_OnlyAfterHooks(t *testing.T) {
	for _, h := range metrics.New().Plugin().Hooks() {
		require.True(t, strings.HasPrefix(string(h), "after"), h)
	}
}

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New()
	require.NoError(t, registerAll(reg, m.PrometheusCollectors()))

	// registering twice is rejected by prometheus
	err := registerAll(reg, metrics.New().PrometheusCollectors())
	var are prometheus.AlreadyRegisteredError
	require.True(t, errors.As(err, &are))
}

func registerAll(reg prometheus.Registerer, cs []prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
