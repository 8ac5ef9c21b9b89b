package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/influxdata/stash/kit/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// execute runs the stash command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd, err := newRootCommand(viper.New(), &out)
	require.NoError(t, err)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err = cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestCommands_Bolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.bolt")
	run := func(args ...string) string {
		t.Helper()
		out, err := execute(t, append([]string{"--bolt-path", path}, args...)...)
		require.NoError(t, err)
		return out
	}

	require.Equal(t, "true", run("check"))
	require.JSONEq(t, `{"key":"key","value":{"a":[1,2]},"extra":{"b":true}}`, run("set", "key", `{"a":[1,2]}`, "--extra", `{"b":true}`))
	require.JSONEq(t, `{"key":"key","value":{"a":[1,2]},"extra":{"b":true}}`, run("get", "key"))
	require.Equal(t, "true", run("has", "key"))
	require.JSONEq(t, `{"c":"d"}`, run("set-extra", "key", `{"c":"d"}`))
	require.JSONEq(t, `{"c":"d"}`, run("get-extra", "key"))
	require.Equal(t, "true", run("remove", "key"))

	require.Equal(t, "null", run("get", "key"))
	require.Equal(t, "null", run("get-extra", "key"))
	require.Equal(t, "false", run("has", "key"))
	require.Equal(t, "false", run("remove", "key"))
	require.Equal(t, "false", run("set-extra", "key", `{}`))
}

func TestCommands_SQLiteWithPlugins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.sqlite")
	base := []string{"--adapter", "sqlite", "--sqlite-path", path, "--prefix", "app_", "--ttl", "1h"}

	out, err := execute(t, append(base, "set", "key", `"value"`)...)
	require.NoError(t, err)
	require.Contains(t, out, `"key":"key"`)
	require.Contains(t, out, `"__ttl"`)

	out, err = execute(t, append(base, "has", "key")...)
	require.NoError(t, err)
	require.Equal(t, "true", out)

	// without the prefix the item is stored under the decorated key
	out, err = execute(t, "--adapter", "sqlite", "--sqlite-path", path, "has", "app_key")
	require.NoError(t, err)
	require.Equal(t, "true", out)

	_, err = execute(t, append(base, "--read-only", "remove", "key")...)
	require.EqualError(t, err, "Removing items is not allowed!")
}

func TestCommands_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "stash.toml")
	require.NoError(t, os.WriteFile(config, []byte(`
adapter = "sqlite"

[sqlite]
path = "`+filepath.ToSlash(filepath.Join(dir, "from-config.sqlite"))+`"
`), 0600))

	_, err := execute(t, "--config", config, "set", "key", "1")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "from-config.sqlite"))

	// flags win over the config file
	out, err := execute(t, "--config", config, "--adapter", "memory", "has", "key")
	require.NoError(t, err)
	require.Equal(t, "false", out)

	t.Setenv("STASH_ADAPTER", "memory")
	out, err = execute(t, "check")
	require.NoError(t, err)
	require.Equal(t, "true", out)
}

func TestCommands_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{name: "unknown adapter", args: []string{"--adapter", "redis", "check"}, err: `unknown adapter "redis"`},
		{name: "bad value", args: []string{"--adapter", "memory", "set", "key", "{"}, err: "value is not valid JSON"},
		{name: "bad extra", args: []string{"--adapter", "memory", "set-extra", "key", "[]"}, err: "extra must be a JSON object"},
		{name: "bad key", args: []string{"--adapter", "memory", "set", "bad key", "1"}, err: "Invalid key: 'bad key'"},
		{name: "bad ttl", args: []string{"--adapter", "memory", "--ttl", "1500ms", "check"}, err: "ttl must be a positive whole number of seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.ErrorContains(t, err, tt.err)
			require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
		})
	}
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name   string
		format string
		err    error
		text   string
		json   string
	}{
		{
			name: "text",
			err:  errors.Invalidf("value is not valid JSON"),
			text: "Error: value is not valid JSON\n",
		},
		{
			name:   "stash error as json",
			format: "json",
			err: &errors.Error{
				Code: errors.EForbidden,
				Op:   "readonly.RemoveItem",
				Msg:  "Removing items is not allowed!",
			},
			json: `{"code":"forbidden","message":"Removing items is not allowed!","op":"readonly.RemoveItem"}`,
		},
		{
			name:   "wrapped stash error as json",
			format: "json",
			err:    fmt.Errorf("ttl: %w", errors.Invalidf("ttl must be a positive whole number of seconds")),
			json: `{
				"code": "invalid",
				"message": "ttl must be a positive whole number of seconds",
				"error": "ttl: ttl must be a positive whole number of seconds"
			}`,
		},
		{
			name:   "foreign error as json",
			format: "json",
			err:    stderrors.New(`unknown command "nope" for "stash"`),
			json: `{
				"code": "internal error",
				"message": "An internal error has occurred.",
				"error": "unknown command \"nope\" for \"stash\""
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.format, tt.err)
			if tt.json == "" {
				require.Equal(t, tt.text, buf.String())
				return
			}
			require.JSONEq(t, tt.json, buf.String())
		})
	}
}

func TestReportError_FormatFromConfig(t *testing.T) {
	v := viper.New()
	var out bytes.Buffer
	cmd, err := newRootCommand(v, &out)
	require.NoError(t, err)
	cmd.SetArgs([]string{"--adapter", "memory", "--log-format", "json", "set", "bad key", "1"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err = cmd.Execute()
	require.Error(t, err)

	var buf bytes.Buffer
	reportError(&buf, v.GetString("log-format"), err)
	require.Contains(t, buf.String(), `"code":"invalid"`)
}
