//go:build integration

package nats_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/nats"
	stashtesting "github.com/influxdata/stash/testing"
	"github.com/stretchr/testify/require"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func startNATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			Cmd:          []string{"--js"},
			WaitingFor:   wait.ForListeningPort("4222/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start nats container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestAdapter(t *testing.T) {
	url := startNATS(t)

	n := 0
	stashtesting.Adapter(func(t *testing.T) (stash.Adapter, func()) {
		n++
		a, err := nats.NewAdapter(zaptest.NewLogger(t), nats.Config{
			URL:          url,
			Bucket:       fmt.Sprintf("stash_%d", n),
			CreateBucket: true,
		})
		require.NoError(t, err)
		return a, func() {}
	}, t)
}

func TestAdapter_MissingBucket(t *testing.T) {
	url := startNATS(t)

	a, err := nats.NewAdapter(zaptest.NewLogger(t), nats.Config{URL: url, Bucket: "missing"})
	require.NoError(t, err)
	require.Error(t, a.Connect(context.Background()))
}
