package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/bolt"
	"github.com/influxdata/stash/kit/errors"
	stashtesting "github.com/influxdata/stash/testing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func NewTestAdapter(t *testing.T) (*bolt.Adapter, func()) {
	t.Helper()

	a, err := bolt.NewAdapter(zaptest.NewLogger(t), bolt.Config{
		Path: filepath.Join(t.TempDir(), "stash.bolt"),
	})
	require.NoError(t, err)
	require.NoError(t, a.Open(context.Background()))

	return a, func() {
		require.NoError(t, a.Close())
	}
}

func TestAdapter(t *testing.T) {
	stashtesting.Adapter(func(t *testing.T) (stash.Adapter, func()) {
		return NewTestAdapter(t)
	}, t)
}

func TestAdapter_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "stash.bolt")

	a, err := bolt.NewAdapter(zaptest.NewLogger(t), bolt.Config{Path: path, Bucket: "custom"})
	require.NoError(t, err)
	require.NoError(t, a.Open(ctx))
	_, err = a.SetItem(ctx, "key", []interface{}{"a", float64(1)}, stash.Extra{"b": true})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := bolt.NewAdapter(zaptest.NewLogger(t), bolt.Config{Path: path, Bucket: "custom"})
	require.NoError(t, err)
	require.NoError(t, b.Open(ctx))
	defer b.Close()

	item, err := b.GetItem(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, &stash.Item{Key: "key", Value: []interface{}{"a", float64(1)}, Extra: stash.Extra{"b": true}}, item)
}

func TestAdapter_NotOpen(t *testing.T) {
	a, err := bolt.NewAdapter(zaptest.NewLogger(t), bolt.Config{Path: filepath.Join(t.TempDir(), "stash.bolt")})
	require.NoError(t, err)

	_, err = a.GetItem(context.Background(), "key")
	require.Equal(t, errors.EUnavailable, errors.ErrorCode(err))
	require.Equal(t, "bolt.GetItem", errors.ErrorOp(err))
}

func TestConfig_Validate(t *testing.T) {
	_, err := bolt.NewAdapter(nil, bolt.Config{})
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	c := bolt.Config{Path: "stash.bolt"}
	require.NoError(t, c.Validate())
	require.Equal(t, bolt.DefaultBucket, c.Bucket)
	require.NotZero(t, c.Timeout)
}

func TestAdapter_Metrics(t *testing.T) {
	ctx := context.Background()
	a, done := NewTestAdapter(t)
	defer done()

	for _, k := range []string{"one", "two"} {
		_, err := a.SetItem(ctx, k, k, nil)
		require.NoError(t, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(a)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			got[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			got[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	require.Equal(t, float64(2), got["stash_items"])
	require.Contains(t, got, "boltdb_reads_total")
	require.Contains(t, got, "boltdb_writes_total")
}

func TestAdapter_CloseDuringOperations(t *testing.T) {
	ctx := context.Background()
	a, err := bolt.NewAdapter(zaptest.NewLogger(t), bolt.Config{Path: filepath.Join(t.TempDir(), "stash.bolt")})
	require.NoError(t, err)
	require.NoError(t, a.Open(ctx))
	// a second Open keeps the file open
	require.NoError(t, a.Open(ctx))

	reg := prometheus.NewRegistry()
	reg.MustRegister(a)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := a.SetItem(ctx, "key", "value", nil)
			if err != nil && errors.ErrorCode(err) != errors.EUnavailable {
				return err
			}
			_, err = reg.Gather()
			return err
		})
	}
	g.Go(a.Close)
	require.NoError(t, g.Wait())

	_, err = a.HasItem(ctx, "key")
	require.Equal(t, errors.EUnavailable, errors.ErrorCode(err))
	require.NoError(t, a.Close())
}
