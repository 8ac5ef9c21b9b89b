package mysql_test

import (
	"context"
	"testing"

	kerrors "github.com/influxdata/stash/kit/errors"
	"github.com/influxdata/stash/mysql"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewAdapter_InvalidConfig(t *testing.T) {
	_, err := mysql.NewAdapter(zaptest.NewLogger(t), mysql.Config{})
	require.Equal(t, kerrors.EInvalid, kerrors.ErrorCode(err))
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	a, err := mysql.NewAdapter(zaptest.NewLogger(t), mysql.Config{DSN: "stash@tcp(127.0.0.1:1)/stash"})
	require.NoError(t, err)

	_, err = a.RemoveItem(ctx, "key")
	require.Equal(t, kerrors.EUnavailable, kerrors.ErrorCode(err))
	require.Equal(t, "mysql.RemoveItem", kerrors.ErrorOp(err))

	err = a.Connect(ctx)
	require.Equal(t, kerrors.EUnavailable, kerrors.ErrorCode(err))
}
