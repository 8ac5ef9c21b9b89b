package inmem_test

import (
	"context"
	"strings"
	"testing"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/inmem"
	stashtesting "github.com/influxdata/stash/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func initAdapter(t *testing.T) (stash.Adapter, func()) {
	a := inmem.NewAdapter()
	a.WithLogger(zaptest.NewLogger(t))
	return a, func() {}
}

func TestAdapter(t *testing.T) {
	stashtesting.Adapter(initAdapter, t)
}

func TestAdapter_CheckStorageLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	a := inmem.NewAdapter()

	_, err := a.SetItem(ctx, "existing", "value", nil)
	require.NoError(t, err)

	require.NoError(t, a.CheckStorage(ctx))
	require.Equal(t, []stash.Key{"existing"}, a.Keys())
}

func TestAdapter_KeysAreOrdered(t *testing.T) {
	ctx := context.Background()
	a := inmem.NewAdapter()

	for _, k := range []string{"c", "a", "b"} {
		_, err := a.SetItem(ctx, k, k, nil)
		require.NoError(t, err)
	}
	require.Equal(t, 3, a.Len())
	require.Equal(t, []stash.Key{"a", "b", "c"}, a.Keys())

	a.Flush(ctx)
	require.Zero(t, a.Len())
}

func TestAdapter_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	a := inmem.NewAdapter()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		key := strings.Repeat("k", i+1)
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_, _ = a.SetItem(ctx, key, float64(j), stash.Extra{"j": float64(j)})
				_, _ = a.GetItem(ctx, key)
				_, _ = a.SetExtra(ctx, key, stash.Extra{})
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	require.Equal(t, 8, a.Len())
}
