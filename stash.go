// Package stash provides a storage-agnostic key/value/extra facade.
//
// A Stash wraps an Adapter, which owns the persisted data, and runs every
// operation through an ordered pipeline of plugin hooks:
//
//	connect → buildKey → before<Op> → adapter call → after<Op> → disconnect
//
// Adapters live in their own packages (inmem, bolt, sqlite, postgres, mysql,
// nats) and plugins under plugins/.
package stash

// Key identifies an item. Valid keys match ^[A-Za-z0-9_-]+$.
type Key = string

// Value is any JSON-safe value: string, float64, bool, nil, []interface{}
// or map[string]interface{} composed of the same.
type Value = interface{}

// Extra is the metadata stored next to an item's value.
type Extra map[string]interface{}

// Item is the tuple returned by read operations and produced by writes.
type Item struct {
	Key   Key   `json:"key"`
	Value Value `json:"value"`
	Extra Extra `json:"extra"`
}

// Ptr returns a pointer to v. It is a convenience for filling the
// optional fields of hook updates.
func Ptr[T any](v T) *T {
	return &v
}
