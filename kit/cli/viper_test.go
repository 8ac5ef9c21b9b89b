package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type testOpts struct {
	adapter  string
	ttl      time.Duration
	readOnly bool
	port     int
	tags     []string
	level    zapcore.Level
}

func newTestProgram(t *testing.T, o *testOpts, ran *bool) *cobra.Command {
	t.Helper()

	cmd, err := NewCommand(viper.New(), &Program{
		Name:       "stashtest",
		ConfigFlag: "config",
		Run: func(*cobra.Command, []string) error {
			*ran = true
			return nil
		},
		Opts: []Opt{
			NewOpt(&o.adapter, "adapter", "memory", "adapter name"),
			NewOpt(&o.ttl, "ttl", time.Duration(0), "item ttl"),
			NewOpt(&o.readOnly, "read-only", false, "reject writes"),
			NewOpt(&o.port, "sqlite-port", 0, "a nested option"),
			NewOpt(&o.tags, "tags", nil, "tags"),
			NewOpt(&o.level, "log-level", zapcore.InfoLevel, "log level"),
		},
	})
	require.NoError(t, err)
	return cmd
}

func TestNewCommand_Defaults(t *testing.T) {
	var o testOpts
	var ran bool
	cmd := newTestProgram(t, &o, &ran)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.True(t, ran)
	assert.Equal(t, "memory", o.adapter)
	assert.Zero(t, o.ttl)
	assert.False(t, o.readOnly)
	assert.Equal(t, zapcore.InfoLevel, o.level)
}

func TestNewCommand_Flags(t *testing.T) {
	var o testOpts
	var ran bool
	cmd := newTestProgram(t, &o, &ran)
	cmd.SetArgs([]string{"--adapter", "bolt", "--ttl", "90s", "--read-only", "--tags", "a,b", "--log-level", "debug"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "bolt", o.adapter)
	assert.Equal(t, 90*time.Second, o.ttl)
	assert.True(t, o.readOnly)
	assert.Equal(t, []string{"a", "b"}, o.tags)
	assert.Equal(t, zapcore.DebugLevel, o.level)
}

func TestNewCommand_Env(t *testing.T) {
	t.Setenv("STASHTEST_ADAPTER", "sqlite")
	t.Setenv("STASHTEST_READ_ONLY", "true")

	var o testOpts
	var ran bool
	cmd := newTestProgram(t, &o, &ran)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sqlite", o.adapter)
	assert.True(t, o.readOnly)
}

func TestNewCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
adapter = "postgres"
ttl = "1m"
log-level = "warn"

[sqlite]
port = 42
`), 0600))

	t.Run("values come from the file", func(t *testing.T) {
		var o testOpts
		var ran bool
		cmd := newTestProgram(t, &o, &ran)
		cmd.SetArgs([]string{"--config", path})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "postgres", o.adapter)
		assert.Equal(t, time.Minute, o.ttl)
		assert.Equal(t, 42, o.port)
		assert.Equal(t, zapcore.WarnLevel, o.level)
	})

	t.Run("flags win over the file", func(t *testing.T) {
		var o testOpts
		var ran bool
		cmd := newTestProgram(t, &o, &ran)
		cmd.SetArgs([]string{"--config", path, "--adapter", "mysql"})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "mysql", o.adapter)
		assert.Equal(t, time.Minute, o.ttl)
	})

	t.Run("missing file", func(t *testing.T) {
		var o testOpts
		var ran bool
		cmd := newTestProgram(t, &o, &ran)
		cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")})

		require.Error(t, cmd.Execute())
		assert.False(t, ran)
	})
}

func TestBindOptions_UnknownType(t *testing.T) {
	var f float32
	err := BindOptions(viper.New(), &cobra.Command{}, []Opt{NewOpt(&f, "ratio", nil, "")})
	require.Error(t, err)
}

func TestLevelFlag_Invalid(t *testing.T) {
	var o testOpts
	var ran bool
	cmd := newTestProgram(t, &o, &ran)
	cmd.SetArgs([]string{"--log-level", "loud"})

	require.Error(t, cmd.Execute())
	assert.False(t, ran)
}
