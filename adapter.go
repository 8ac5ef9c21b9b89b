package stash

import "context"

//go:generate go run github.com/golang/mock/mockgen -package mock -destination mock/adapter.go github.com/influxdata/stash Adapter

// Storage is the set of data operations every backend exposes. Hook
// handlers receive a Storage so they can inspect or adjust stored state
// while an operation is in flight.
//
// Not-found outcomes are sentinels, never errors: GetItem returns a nil
// *Item, GetExtra and SetExtra return a nil Extra, and HasItem and
// RemoveItem return false.
type Storage interface {
	// SetItem creates or replaces the item stored under key. A nil extra
	// is stored as an empty object.
	SetItem(ctx context.Context, key Key, value Value, extra Extra) (Item, error)
	// GetItem returns the item stored under key.
	GetItem(ctx context.Context, key Key) (*Item, error)
	// HasItem reports whether an item is stored under key.
	HasItem(ctx context.Context, key Key) (bool, error)
	// RemoveItem deletes the item and reports whether it existed.
	RemoveItem(ctx context.Context, key Key) (bool, error)
	// SetExtra replaces only the extra of an existing item. It never
	// creates an item.
	SetExtra(ctx context.Context, key Key, extra Extra) (Extra, error)
	// GetExtra returns only the extra of the item stored under key.
	GetExtra(ctx context.Context, key Key) (Extra, error)
}

// Adapter is a storage backend usable by a Stash.
type Adapter interface {
	Storage

	// Connect prepares the backend for a unit of work.
	Connect(ctx context.Context) error
	// Disconnect releases whatever Connect acquired.
	Disconnect(ctx context.Context) error
	// CheckStorage runs an end-to-end smoke test against the backend.
	// Most adapters implement it by calling the package level CheckStorage.
	CheckStorage(ctx context.Context) error
}

// NopLifecycle provides no-op Connect and Disconnect methods for adapters
// that keep their backend open for their whole lifetime.
type NopLifecycle struct{}

// Connect does nothing.
func (NopLifecycle) Connect(context.Context) error { return nil }

// Disconnect does nothing.
func (NopLifecycle) Disconnect(context.Context) error { return nil }
