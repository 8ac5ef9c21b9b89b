package testing

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/influxdata/stash"
)

// AdapterFields are the items an adapter is seeded with before a test.
type AdapterFields struct {
	Items []stash.Item
}

// AdapterInitFn returns an empty adapter and a func cleaning up after it.
type AdapterInitFn func(*testing.T) (stash.Adapter, func())

// Adapter runs the conformance tests every stash.Adapter must pass.
func Adapter(init AdapterInitFn, t *testing.T) {
	tests := []struct {
		name string
		fn   func(init AdapterInitFn, t *testing.T)
	}{
		{name: "SetItem", fn: SetItem},
		{name: "GetItem", fn: GetItem},
		{name: "HasItem", fn: HasItem},
		{name: "RemoveItem", fn: RemoveItem},
		{name: "SetExtra", fn: SetExtra},
		{name: "GetExtra", fn: GetExtra},
		{name: "KeyValidation", fn: KeyValidation},
		{name: "CheckStorage", fn: CheckStorage},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(init, t)
		})
	}
}

// open calls init, connects the adapter and seeds it with fields.
func open(ctx context.Context, init AdapterInitFn, fields AdapterFields, t *testing.T) (stash.Adapter, func()) {
	t.Helper()

	a, done := init(t)
	if err := a.Connect(ctx); err != nil {
		done()
		t.Fatalf("failed to connect adapter: %v", err)
	}
	for _, item := range fields.Items {
		if _, err := a.SetItem(ctx, item.Key, item.Value, item.Extra); err != nil {
			_ = a.Disconnect(ctx)
			done()
			t.Fatalf("failed to populate item %q: %v", item.Key, err)
		}
	}

	return a, func() {
		if err := a.Disconnect(ctx); err != nil {
			t.Errorf("failed to disconnect adapter: %v", err)
		}
		done()
	}
}

// SetItem testing
func SetItem(
	init AdapterInitFn,
	t *testing.T,
) {
	type args struct {
		key   stash.Key
		value stash.Value
		extra stash.Extra
	}
	type wants struct {
		item stash.Item
	}

	bigArray := make([]interface{}, 1000)
	for i := range bigArray {
		bigArray[i] = map[string]interface{}{"index": float64(i), "name": "element"}
	}

	tests := []struct {
		name   string
		fields AdapterFields
		args   args
		wants  wants
	}{
		{
			name: "stores a string value with extra",
			args: args{key: "key", value: "value", extra: stash.Extra{"some": "extra"}},
			wants: wants{
				item: stash.Item{Key: "key", Value: "value", Extra: stash.Extra{"some": "extra"}},
			},
		},
		{
			name: "stores an empty string",
			args: args{key: "empty-string", value: "", extra: stash.Extra{}},
			wants: wants{
				item: stash.Item{Key: "empty-string", Value: "", Extra: stash.Extra{}},
			},
		},
		{
			name: "stores zero",
			args: args{key: "zero", value: float64(0), extra: stash.Extra{}},
			wants: wants{
				item: stash.Item{Key: "zero", Value: float64(0), Extra: stash.Extra{}},
			},
		},
		{
			name: "stores null",
			args: args{key: "null", value: nil, extra: stash.Extra{}},
			wants: wants{
				item: stash.Item{Key: "null", Value: nil, Extra: stash.Extra{}},
			},
		},
		{
			name: "stores false",
			args: args{key: "false", value: false, extra: stash.Extra{}},
			wants: wants{
				item: stash.Item{Key: "false", Value: false, Extra: stash.Extra{}},
			},
		},
		{
			name: "stores an empty object",
			args: args{key: "empty-object", value: map[string]interface{}{}, extra: stash.Extra{}},
			wants: wants{
				item: stash.Item{Key: "empty-object", Value: map[string]interface{}{}, Extra: stash.Extra{}},
			},
		},
		{
			name: "stores an empty array",
			args: args{key: "empty-array", value: []interface{}{}, extra: stash.Extra{}},
			wants: wants{
				item: stash.Item{Key: "empty-array", Value: []interface{}{}, Extra: stash.Extra{}},
			},
		},
		{
			name: "stores deeply nested values",
			args: args{
				key: "nested",
				value: map[string]interface{}{
					"level1": map[string]interface{}{
						"level2": map[string]interface{}{
							"level3": []interface{}{float64(1), "two", true, nil, map[string]interface{}{"deep": "value"}},
						},
					},
				},
				extra: stash.Extra{"tags": []interface{}{"a", "b"}, "meta": map[string]interface{}{"n": float64(1.5)}},
			},
			wants: wants{
				item: stash.Item{
					Key: "nested",
					Value: map[string]interface{}{
						"level1": map[string]interface{}{
							"level2": map[string]interface{}{
								"level3": []interface{}{float64(1), "two", true, nil, map[string]interface{}{"deep": "value"}},
							},
						},
					},
					Extra: stash.Extra{"tags": []interface{}{"a", "b"}, "meta": map[string]interface{}{"n": float64(1.5)}},
				},
			},
		},
		{
			name: "stores big values",
			args: args{key: "big", value: bigArray, extra: stash.Extra{"count": float64(1000)}},
			wants: wants{
				item: stash.Item{Key: "big", Value: bigArray, Extra: stash.Extra{"count": float64(1000)}},
			},
		},
		{
			name: "stores nil extra as an empty object",
			args: args{key: "nil-extra", value: "value", extra: nil},
			wants: wants{
				item: stash.Item{Key: "nil-extra", Value: "value", Extra: stash.Extra{}},
			},
		},
		{
			name: "overwrites value and extra without merging",
			fields: AdapterFields{
				Items: []stash.Item{
					{Key: "overwrite", Value: "old", Extra: stash.Extra{"old": true, "shared": "old"}},
				},
			},
			args: args{key: "overwrite", value: "new", extra: stash.Extra{"shared": "new"}},
			wants: wants{
				item: stash.Item{Key: "overwrite", Value: "new", Extra: stash.Extra{"shared": "new"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, done := open(ctx, init, tt.fields, t)
			defer done()

			item, err := a.SetItem(ctx, tt.args.key, tt.args.value, tt.args.extra)
			if err != nil {
				t.Fatalf("failed to set item: %v", err)
			}
			if diff := cmp.Diff(tt.wants.item, item); diff != "" {
				t.Errorf("set item is different -want/+got\ndiff %s", diff)
			}

			got, err := a.GetItem(ctx, tt.args.key)
			if err != nil {
				t.Fatalf("failed to get item: %v", err)
			}
			if got == nil {
				t.Fatalf("expected item %q to be stored", tt.args.key)
			}
			if diff := cmp.Diff(tt.wants.item, *got); diff != "" {
				t.Errorf("stored item is different -want/+got\ndiff %s", diff)
			}
		})
	}

	t.Run("callers do not share memory with stored items", func(t *testing.T) {
		ctx := context.Background()
		a, done := open(ctx, init, AdapterFields{}, t)
		defer done()

		extra := stash.Extra{"list": []interface{}{"a"}}
		item, err := a.SetItem(ctx, "isolated", map[string]interface{}{"field": "value"}, extra)
		if err != nil {
			t.Fatalf("failed to set item: %v", err)
		}
		extra["list"] = []interface{}{"mutated"}
		item.Extra["added"] = true
		item.Value.(map[string]interface{})["field"] = "mutated"

		got, err := a.GetItem(ctx, "isolated")
		if err != nil {
			t.Fatalf("failed to get item: %v", err)
		}
		want := stash.Item{
			Key:   "isolated",
			Value: map[string]interface{}{"field": "value"},
			Extra: stash.Extra{"list": []interface{}{"a"}},
		}
		if diff := cmp.Diff(want, *got); diff != "" {
			t.Errorf("stored item changed -want/+got\ndiff %s", diff)
		}
	})
}

// GetItem testing
func GetItem(
	init AdapterInitFn,
	t *testing.T,
) {
	tests := []struct {
		name   string
		fields AdapterFields
		key    stash.Key
		want   *stash.Item
	}{
		{
			name: "returns the stored item",
			fields: AdapterFields{
				Items: []stash.Item{
					{Key: "one", Value: "value one", Extra: stash.Extra{"n": float64(1)}},
					{Key: "two", Value: "value two", Extra: stash.Extra{"n": float64(2)}},
				},
			},
			key:  "two",
			want: &stash.Item{Key: "two", Value: "value two", Extra: stash.Extra{"n": float64(2)}},
		},
		{
			name: "returns nil for a missing item",
			fields: AdapterFields{
				Items: []stash.Item{
					{Key: "one", Value: "value one", Extra: stash.Extra{}},
				},
			},
			key:  "missing",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, done := open(ctx, init, tt.fields, t)
			defer done()

			got, err := a.GetItem(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to get item: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("items are different -want/+got\ndiff %s", diff)
			}
		})
	}
}

// HasItem testing
func HasItem(
	init AdapterInitFn,
	t *testing.T,
) {
	tests := []struct {
		name   string
		fields AdapterFields
		key    stash.Key
		want   bool
	}{
		{
			name: "existing item",
			fields: AdapterFields{
				Items: []stash.Item{{Key: "present", Value: false, Extra: stash.Extra{}}},
			},
			key:  "present",
			want: true,
		},
		{
			name: "missing item",
			fields: AdapterFields{
				Items: []stash.Item{{Key: "present", Value: false, Extra: stash.Extra{}}},
			},
			key:  "absent",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, done := open(ctx, init, tt.fields, t)
			defer done()

			got, err := a.HasItem(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to check item: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected HasItem(%q) to be %v, got %v", tt.key, tt.want, got)
			}
		})
	}
}

// RemoveItem testing
func RemoveItem(
	init AdapterInitFn,
	t *testing.T,
) {
	tests := []struct {
		name   string
		fields AdapterFields
		key    stash.Key
		want   bool
	}{
		{
			name: "removes an existing item",
			fields: AdapterFields{
				Items: []stash.Item{
					{Key: "remove-me", Value: "value", Extra: stash.Extra{}},
					{Key: "keep-me", Value: "value", Extra: stash.Extra{}},
				},
			},
			key:  "remove-me",
			want: true,
		},
		{
			name: "missing item is not an error",
			key:  "never-stored",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, done := open(ctx, init, tt.fields, t)
			defer done()

			got, err := a.RemoveItem(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to remove item: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected RemoveItem(%q) to be %v, got %v", tt.key, tt.want, got)
			}

			has, err := a.HasItem(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to check item: %v", err)
			}
			if has {
				t.Errorf("expected %q to be gone", tt.key)
			}

			for _, item := range tt.fields.Items {
				if item.Key == tt.key {
					continue
				}
				if has, err := a.HasItem(ctx, item.Key); err != nil || !has {
					t.Errorf("expected %q to be kept, has=%v err=%v", item.Key, has, err)
				}
			}

			again, err := a.RemoveItem(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to remove item twice: %v", err)
			}
			if again {
				t.Errorf("expected second RemoveItem(%q) to be false", tt.key)
			}
		})
	}
}

// SetExtra testing
func SetExtra(
	init AdapterInitFn,
	t *testing.T,
) {
	type wants struct {
		extra stash.Extra
		item  *stash.Item
	}

	tests := []struct {
		name   string
		fields AdapterFields
		key    stash.Key
		extra  stash.Extra
		wants  wants
	}{
		{
			name: "replaces the extra of an existing item",
			fields: AdapterFields{
				Items: []stash.Item{
					{Key: "item", Value: map[string]interface{}{"keep": "me"}, Extra: stash.Extra{"old": "extra", "shared": float64(1)}},
				},
			},
			key:   "item",
			extra: stash.Extra{"shared": float64(2), "new": []interface{}{true}},
			wants: wants{
				extra: stash.Extra{"shared": float64(2), "new": []interface{}{true}},
				item: &stash.Item{
					Key:   "item",
					Value: map[string]interface{}{"keep": "me"},
					Extra: stash.Extra{"shared": float64(2), "new": []interface{}{true}},
				},
			},
		},
		{
			name: "nil extra clears the extra",
			fields: AdapterFields{
				Items: []stash.Item{{Key: "item", Value: "value", Extra: stash.Extra{"old": "extra"}}},
			},
			key:   "item",
			extra: nil,
			wants: wants{
				extra: stash.Extra{},
				item:  &stash.Item{Key: "item", Value: "value", Extra: stash.Extra{}},
			},
		},
		{
			name:  "missing item returns nil and creates nothing",
			key:   "missing-key",
			extra: stash.Extra{"some": "extra"},
			wants: wants{
				extra: nil,
				item:  nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, done := open(ctx, init, tt.fields, t)
			defer done()

			extra, err := a.SetExtra(ctx, tt.key, tt.extra)
			if err != nil {
				t.Fatalf("failed to set extra: %v", err)
			}
			if diff := cmp.Diff(tt.wants.extra, extra); diff != "" {
				t.Errorf("extra is different -want/+got\ndiff %s", diff)
			}

			item, err := a.GetItem(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to get item: %v", err)
			}
			if diff := cmp.Diff(tt.wants.item, item); diff != "" {
				t.Errorf("item is different -want/+got\ndiff %s", diff)
			}
		})
	}
}

// GetExtra testing
func GetExtra(
	init AdapterInitFn,
	t *testing.T,
) {
	tests := []struct {
		name   string
		fields AdapterFields
		key    stash.Key
		want   stash.Extra
	}{
		{
			name: "returns the extra of an existing item",
			fields: AdapterFields{
				Items: []stash.Item{{Key: "item", Value: "value", Extra: stash.Extra{"a": "b", "c": nil}}},
			},
			key:  "item",
			want: stash.Extra{"a": "b", "c": nil},
		},
		{
			name: "returns an empty extra",
			fields: AdapterFields{
				Items: []stash.Item{{Key: "item", Value: "value"}},
			},
			key:  "item",
			want: stash.Extra{},
		},
		{
			name: "returns nil for a missing item",
			key:  "missing",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, done := open(ctx, init, tt.fields, t)
			defer done()

			got, err := a.GetExtra(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to get extra: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("extra is different -want/+got\ndiff %s", diff)
			}
		})
	}
}

// ValidKeys are accepted by every adapter.
var ValidKeys = []stash.Key{
	"simple",
	"with_underscore",
	"with-hyphen",
	"MixedCase",
	"with123numbers",
	"UPPERCASE",
	"a",
	"123",
	"a_b-c123",
}

// InvalidKeys are rejected by every mutating adapter operation.
var InvalidKeys = []stash.Key{
	"with space",
	"with.dot",
	"with@symbol",
	"with#hash",
	"with$dollar",
	"with%percent",
	"with!exclaim",
	"with/slash",
	`with\backslash`,
	"with:colon",
	"",
	"key=value",
	"key?query",
	"key&more",
}

// KeyValidation testing
func KeyValidation(
	init AdapterInitFn,
	t *testing.T,
) {
	ctx := context.Background()
	a, done := open(ctx, init, AdapterFields{}, t)
	defer done()

	for _, key := range ValidKeys {
		if _, err := a.SetItem(ctx, key, "value", nil); err != nil {
			t.Errorf("expected key %q to be accepted: %v", key, err)
		}
		if _, err := a.SetExtra(ctx, key, stash.Extra{"k": "v"}); err != nil {
			t.Errorf("expected key %q to be accepted by SetExtra: %v", key, err)
		}
	}

	for _, key := range InvalidKeys {
		invalidKeyError(t, "SetItem", key, func() error {
			_, err := a.SetItem(ctx, key, "value", stash.Extra{})
			return err
		})
		invalidKeyError(t, "SetExtra", key, func() error {
			_, err := a.SetExtra(ctx, key, stash.Extra{})
			return err
		})
		invalidKeyError(t, "RemoveItem", key, func() error {
			_, err := a.RemoveItem(ctx, key)
			return err
		})

		has, err := a.HasItem(ctx, key)
		if err != nil {
			t.Errorf("failed to check invalid key %q: %v", key, err)
		}
		if has {
			t.Errorf("expected no item to be stored under invalid key %q", key)
		}
	}
}

func invalidKeyError(t *testing.T, op string, key stash.Key, fn func() error) {
	t.Helper()

	err := fn()
	if err == nil {
		t.Errorf("%s: expected key %q to be rejected", op, key)
		return
	}
	if want := "Invalid key: '" + key + "'"; !strings.Contains(err.Error(), want) {
		t.Errorf("%s: expected error to contain %q, got %q", op, want, err.Error())
	}
}

// CheckStorage testing
func CheckStorage(
	init AdapterInitFn,
	t *testing.T,
) {
	ctx := context.Background()
	a, done := init(t)
	defer done()

	if err := a.CheckStorage(ctx); err != nil {
		t.Fatalf("expected storage check to pass: %v", err)
	}
}
