// Package prefix namespaces keys with a fixed prefix and/or suffix.
package prefix

import (
	"context"
	"strings"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/kit/errors"
)

// Name of the plugin.
const Name = "prefix"

// Options configures the plugin. Surrounding whitespace is ignored.
type Options struct {
	Prefix string `toml:"prefix"`
	Suffix string `toml:"suffix"`
}

// New returns a plugin adding the prefix and suffix to every key handed to
// the adapter and stripping them from the keys of returned items.
func New(opts Options) (stash.Plugin, error) {
	prefix := strings.TrimSpace(opts.Prefix)
	suffix := strings.TrimSpace(opts.Suffix)

	if prefix == "" && suffix == "" {
		return stash.Plugin{}, errors.Invalidf("either prefix or suffix should be set")
	}
	for _, part := range []string{prefix, suffix} {
		if part != "" && !stash.ValidKey(part) {
			return stash.Plugin{}, errors.Invalidf("%q cannot be part of a key", part)
		}
	}

	strip := func(key stash.Key) stash.Key {
		if suffix != "" {
			key = strings.TrimSuffix(key, suffix)
		}
		if prefix != "" {
			key = strings.TrimPrefix(key, prefix)
		}
		return key
	}

	return stash.Plugin{
		Name: Name,
		BuildKey: func(_ context.Context, args stash.KeyArgs) (stash.KeyUpdate, error) {
			return stash.KeyUpdate{Key: stash.Ptr(prefix + args.Key + suffix)}, nil
		},
		AfterSetItem: func(_ context.Context, args stash.SetItemResultArgs) (stash.SetItemResultUpdate, error) {
			item := args.Item
			item.Key = strip(item.Key)
			return stash.SetItemResultUpdate{
				Key:  stash.Ptr(strip(args.Key)),
				Item: &item,
			}, nil
		},
		AfterGetItem: func(_ context.Context, args stash.GetItemResultArgs) (stash.GetItemResultUpdate, error) {
			if args.Item == nil {
				return stash.GetItemResultUpdate{}, nil
			}
			item := *args.Item
			item.Key = strip(item.Key)
			return stash.GetItemResultUpdate{
				Key:  stash.Ptr(strip(args.Key)),
				Item: stash.Ptr(&item),
			}, nil
		},
	}, nil
}
