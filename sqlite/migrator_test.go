package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/influxdata/stash/internal/sqlschema"
	"github.com/influxdata/stash/sqlite/migrations"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newInmemAdapter(t *testing.T) *Adapter {
	t.Helper()

	a, err := NewAdapter(context.Background(), zaptest.NewLogger(t), Config{Path: InmemPath, CreateTable: true})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestUp(t *testing.T) {
	ctx := context.Background()
	a := newInmemAdapter(t)

	v, err := a.migratedVersion(ctx, sqlschema.DefaultTable)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	// running again is a no-op
	require.NoError(t, NewMigrator(a, zaptest.NewLogger(t)).Up(ctx, migrations.All))
	v, err = a.migratedVersion(ctx, sqlschema.DefaultTable)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestUp_RendersColumns(t *testing.T) {
	ctx := context.Background()
	a := newInmemAdapter(t)

	source := fstest.MapFS{
		"0002_add_index.sql": &fstest.MapFile{
			Data: []byte(`CREATE INDEX idx_extra ON {{.Table}} ({{.Extra}});`),
		},
	}
	require.NoError(t, NewMigrator(a, zaptest.NewLogger(t)).Up(ctx, source))

	var n int
	require.NoError(t, a.DB.GetContext(ctx, &n, `SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_extra'`))
	require.Equal(t, 1, n)

	v, err := a.migratedVersion(ctx, sqlschema.DefaultTable)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestUp_FailedScriptKeepsVersion(t *testing.T) {
	ctx := context.Background()
	a := newInmemAdapter(t)

	source := fstest.MapFS{
		"0002_broken.sql": &fstest.MapFile{Data: []byte(`CREATE TABLE {{.Table}} (nope);`)},
	}
	err := NewMigrator(a, zaptest.NewLogger(t)).Up(ctx, source)
	require.ErrorContains(t, err, "0002_broken.sql")

	v, err := a.migratedVersion(ctx, sqlschema.DefaultTable)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestUp_TracksVersionPerTable(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	path := filepath.Join(t.TempDir(), "stash.sqlite")

	a, err := NewAdapter(ctx, log, Config{Path: path, CreateTable: true})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	other, err := NewAdapter(ctx, log, Config{
		Schema:      sqlschema.Schema{Table: "other"},
		Path:        path,
		CreateTable: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { other.Close() })

	for _, table := range []string{sqlschema.DefaultTable, "other"} {
		v, err := other.migratedVersion(ctx, table)
		require.NoError(t, err)
		require.Equal(t, 1, v, table)
	}

	_, err = other.SetItem(ctx, "key", "value", nil)
	require.NoError(t, err)
	item, err := other.GetItem(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "value", item.Value)
}

func TestScriptVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{name: "0001_create_items.sql", want: 1},
		{name: "0010_add_index.sql", want: 10},
		{name: "create_items.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scriptVersion(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
