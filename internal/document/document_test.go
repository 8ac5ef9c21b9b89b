package document

import (
	"math"
	"testing"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/kit/errors"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	b, err := Encode(map[string]interface{}{"a": []int{1, 2}}, stash.Extra{"n": 1})
	require.NoError(t, err)

	item, err := Decode("key", b)
	require.NoError(t, err)
	require.Equal(t, &stash.Item{
		Key:   "key",
		Value: map[string]interface{}{"a": []interface{}{float64(1), float64(2)}},
		Extra: stash.Extra{"n": float64(1)},
	}, item)
}

func TestEncodeNilExtra(t *testing.T) {
	b, err := Encode(nil, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"value":null,"extra":{}}`, string(b))

	item, err := Decode("k", b)
	require.NoError(t, err)
	require.Nil(t, item.Value)
	require.Equal(t, stash.Extra{}, item.Extra)
}

func TestEncodeRejectsUnsafeValues(t *testing.T) {
	_, err := Encode(math.NaN(), nil)
	require.Error(t, err)
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	_, err = Encode("ok", stash.Extra{"fn": func() {}})
	require.Error(t, err)
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}

func TestReplaceExtra(t *testing.T) {
	b, err := Encode("value", stash.Extra{"old": true})
	require.NoError(t, err)

	out, extra, err := ReplaceExtra(b, stash.Extra{"new": "yes"})
	require.NoError(t, err)
	require.Equal(t, stash.Extra{"new": "yes"}, extra)

	item, err := Decode("k", out)
	require.NoError(t, err)
	require.Equal(t, "value", item.Value)
	require.Equal(t, stash.Extra{"new": "yes"}, item.Extra)

	got, err := DecodeExtra(out)
	require.NoError(t, err)
	require.Equal(t, extra, got)
}
