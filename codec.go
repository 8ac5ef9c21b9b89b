package stash

import (
	"encoding/json"

	"github.com/influxdata/stash/kit/errors"
)

// MarshalValue encodes v as JSON. Adapters store this encoding and decode
// it again on the way out, so numbers read back as float64, objects as
// map[string]interface{} and arrays as []interface{}, and callers never
// share memory with stored values. Values JSON cannot represent are
// rejected with an EInvalid error.
func MarshalValue(v Value) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "value is not JSON-safe",
			Err:  err,
		}
	}
	return b, nil
}

// MarshalExtra encodes e as a JSON object. A nil extra encodes as {}.
func MarshalExtra(e Extra) ([]byte, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "extra is not JSON-safe",
			Err:  err,
		}
	}
	return b, nil
}

// UnmarshalExtra decodes a JSON object into an Extra. JSON null decodes as
// an empty extra.
func UnmarshalExtra(b []byte) (Extra, error) {
	var e Extra
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	if e == nil {
		e = Extra{}
	}
	return e, nil
}
