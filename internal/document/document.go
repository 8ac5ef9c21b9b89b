// Package document encodes items as single JSON documents for backends that
// store one opaque blob per key.
package document

import (
	"encoding/json"

	"github.com/influxdata/stash"
)

// Document is the stored form of an item. The key is not part of it, it
// lives in the backend's own key space.
type Document struct {
	Value json.RawMessage `json:"value"`
	Extra json.RawMessage `json:"extra"`
}

// Encode validates and encodes value and extra. A nil extra is encoded as {}.
func Encode(value stash.Value, extra stash.Extra) ([]byte, error) {
	v, err := stash.MarshalValue(value)
	if err != nil {
		return nil, err
	}
	e, err := stash.MarshalExtra(extra)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Document{Value: v, Extra: e})
}

// Decode returns the item stored under key as b.
func Decode(key stash.Key, b []byte) (*stash.Item, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}

	var value stash.Value
	if len(d.Value) > 0 {
		if err := json.Unmarshal(d.Value, &value); err != nil {
			return nil, err
		}
	}
	extra, err := decodeExtra(d.Extra)
	if err != nil {
		return nil, err
	}

	return &stash.Item{Key: key, Value: value, Extra: extra}, nil
}

// DecodeExtra returns only the extra of the document b.
func DecodeExtra(b []byte) (stash.Extra, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return decodeExtra(d.Extra)
}

// ReplaceExtra returns b with its extra replaced. The stored value is kept
// byte for byte. The decoded new extra is returned alongside.
func ReplaceExtra(b []byte, extra stash.Extra) ([]byte, stash.Extra, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, nil, err
	}
	e, err := stash.MarshalExtra(extra)
	if err != nil {
		return nil, nil, err
	}
	d.Extra = e

	out, err := json.Marshal(d)
	if err != nil {
		return nil, nil, err
	}
	decoded, err := decodeExtra(e)
	if err != nil {
		return nil, nil, err
	}
	return out, decoded, nil
}

func decodeExtra(raw json.RawMessage) (stash.Extra, error) {
	if len(raw) == 0 {
		return stash.Extra{}, nil
	}
	return stash.UnmarshalExtra(raw)
}
