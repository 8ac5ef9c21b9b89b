// Package ttl expires items a fixed time after they were last written.
//
// The expiry is recorded in the reserved extra property "__ttl" as
// {"ttl": seconds, "createdAt": RFC 3339 timestamp}. Expired items are
// removed lazily, by the before hooks of the operations that read or
// remove them.
package ttl

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/influxdata/stash"
	"github.com/influxdata/stash/kit/errors"
)

// Name of the plugin.
const Name = "ttl"

// Property is the reserved extra property holding the expiry.
const Property = "__ttl"

// createdAtLayout matches the ISO 8601 form with milliseconds in UTC.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Options configures the plugin.
type Options struct {
	// TTL is how long an item lives. It must be a positive whole number of seconds.
	TTL time.Duration
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

type plugin struct {
	seconds int64
	clock   clock.Clock
}

// New returns the ttl plugin.
func New(opts Options) (stash.Plugin, error) {
	if opts.TTL <= 0 || opts.TTL%time.Second != 0 {
		return stash.Plugin{}, errors.Invalidf("ttl must be a positive whole number of seconds, got %s", opts.TTL)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	p := &plugin{seconds: int64(opts.TTL / time.Second), clock: opts.Clock}
	return stash.Plugin{
		Name:             Name,
		BeforeSetItem:    p.beforeSetItem,
		BeforeGetItem:    p.expire,
		BeforeHasItem:    p.expire,
		BeforeRemoveItem: p.expire,
		BeforeGetExtra:   p.expire,
		BeforeSetExtra:   p.beforeSetExtra,
	}, nil
}

func reserved(op string) error {
	return &errors.Error{
		Code: errors.EInvalid,
		Op:   "ttl." + op,
		Msg:  "Extra contains '" + Property + "' property, which is a reserved property name.",
	}
}

func (p *plugin) beforeSetItem(_ context.Context, args stash.SetItemArgs) (stash.SetItemUpdate, error) {
	if _, ok := args.Extra[Property]; ok {
		return stash.SetItemUpdate{}, reserved("SetItem")
	}

	extra := make(stash.Extra, len(args.Extra)+1)
	for k, v := range args.Extra {
		extra[k] = v
	}
	extra[Property] = map[string]interface{}{
		"ttl":       p.seconds,
		"createdAt": p.clock.Now().UTC().Format(createdAtLayout),
	}
	return stash.SetItemUpdate{Extra: &extra}, nil
}

func (p *plugin) beforeSetExtra(ctx context.Context, args stash.SetExtraArgs) (stash.SetExtraUpdate, error) {
	if _, ok := args.Extra[Property]; ok {
		return stash.SetExtraUpdate{}, reserved("SetExtra")
	}

	stamp, err := p.removeExpired(ctx, args.Storage, args.Key)
	if err != nil || stamp == nil {
		return stash.SetExtraUpdate{}, err
	}

	extra := make(stash.Extra, len(args.Extra)+1)
	for k, v := range args.Extra {
		extra[k] = v
	}
	extra[Property] = stamp
	return stash.SetExtraUpdate{Extra: &extra}, nil
}

func (p *plugin) expire(ctx context.Context, args stash.KeyArgs) (stash.KeyUpdate, error) {
	_, err := p.removeExpired(ctx, args.Storage, args.Key)
	return stash.KeyUpdate{}, err
}

// removeExpired removes the item stored under key when its ttl has
// passed. It returns the item's raw ttl property, or nil when the item
// does not exist or carries none.
func (p *plugin) removeExpired(ctx context.Context, s stash.Storage, key stash.Key) (interface{}, error) {
	item, err := s.GetItem(ctx, key)
	if err != nil || item == nil {
		return nil, err
	}
	raw, ok := item.Extra[Property]
	if !ok || raw == nil {
		return nil, nil
	}

	if p.expired(raw) {
		if _, err := s.RemoveItem(ctx, key); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// expired reports whether the stamp raw lies more than its ttl in the
// past. Malformed stamps never expire.
func (p *plugin) expired(raw interface{}) bool {
	stamp, ok := raw.(map[string]interface{})
	if !ok {
		return false
	}
	ttl, ok := stamp["ttl"].(float64)
	if !ok {
		return false
	}
	createdAt, ok := stamp["createdAt"].(string)
	if !ok {
		return false
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return false
	}

	age := p.clock.Now().Sub(created).Seconds()
	return age > ttl
}
