// Package readonly rejects every operation that would change stored data.
package readonly

import (
	"context"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/kit/errors"
)

// Name of the plugin.
const Name = "readonly"

// Default rejection messages.
const (
	DefaultSetItemMessage    = "Overwriting items is not allowed!"
	DefaultRemoveItemMessage = "Removing items is not allowed!"
	DefaultSetExtraMessage   = "Overwriting data in items is not allowed!"
)

// Options overrides the rejection messages. Empty fields use the defaults.
type Options struct {
	SetItemMessage    string
	RemoveItemMessage string
	SetExtraMessage   string
}

func forbidden(op, msg string) error {
	return &errors.Error{
		Code: errors.EForbidden,
		Op:   "readonly." + op,
		Msg:  msg,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// New returns a plugin failing SetItem, RemoveItem and SetExtra before
// they reach the adapter.
func New(opts Options) stash.Plugin {
	setItem := orDefault(opts.SetItemMessage, DefaultSetItemMessage)
	removeItem := orDefault(opts.RemoveItemMessage, DefaultRemoveItemMessage)
	setExtra := orDefault(opts.SetExtraMessage, DefaultSetExtraMessage)

	return stash.Plugin{
		Name: Name,
		BeforeSetItem: func(context.Context, stash.SetItemArgs) (stash.SetItemUpdate, error) {
			return stash.SetItemUpdate{}, forbidden("SetItem", setItem)
		},
		BeforeRemoveItem: func(context.Context, stash.KeyArgs) (stash.KeyUpdate, error) {
			return stash.KeyUpdate{}, forbidden("RemoveItem", removeItem)
		},
		BeforeSetExtra: func(context.Context, stash.SetExtraArgs) (stash.SetExtraUpdate, error) {
			return stash.SetExtraUpdate{}, forbidden("SetExtra", setExtra)
		},
	}
}
