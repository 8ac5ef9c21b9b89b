package stash_test

import (
	"math"
	"testing"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/kit/errors"
	"github.com/stretchr/testify/require"
)

func TestMarshalValue(t *testing.T) {
	tests := []struct {
		name string
		in   stash.Value
		want string
	}{
		{name: "int", in: 42, want: `42`},
		{name: "nil", in: nil, want: `null`},
		{name: "typed slice", in: []string{"a", "b"}, want: `["a","b"]`},
		{name: "nested map", in: map[string]interface{}{"a": map[string]int{"b": 1}}, want: `{"a":{"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stash.MarshalValue(tt.in)
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestMarshalValue_Rejects(t *testing.T) {
	for name, v := range map[string]stash.Value{
		"NaN":      math.NaN(),
		"infinity": math.Inf(1),
		"func":     func() {},
		"channel":  make(chan int),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := stash.MarshalValue(v)
			require.Error(t, err)
			require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
		})
	}
}

func TestMarshalExtra(t *testing.T) {
	b, err := stash.MarshalExtra(nil)
	require.NoError(t, err)
	require.Equal(t, "{}", string(b))

	_, err = stash.MarshalExtra(stash.Extra{"f": func() {}})
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}

func TestUnmarshalExtra(t *testing.T) {
	got, err := stash.UnmarshalExtra([]byte(`null`))
	require.NoError(t, err)
	require.Equal(t, stash.Extra{}, got)

	got, err = stash.UnmarshalExtra([]byte(`{"n":1,"list":["a"]}`))
	require.NoError(t, err)
	require.Equal(t, stash.Extra{"n": float64(1), "list": []interface{}{"a"}}, got)

	_, err = stash.UnmarshalExtra([]byte(`[1]`))
	require.Error(t, err)
}
