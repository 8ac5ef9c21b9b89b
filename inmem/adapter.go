package inmem

import (
	"context"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/influxdata/stash"
	"github.com/influxdata/stash/internal/document"
	"go.uber.org/zap"
)

var _ stash.Adapter = (*Adapter)(nil)

type item struct {
	key string
	doc []byte
}

func itemLess(a, b item) bool {
	return strings.Compare(a.key, b.key) < 0
}

// Adapter is an in memory btree backed stash.Adapter. Items are held as
// encoded documents so callers never share memory with stored state.
type Adapter struct {
	stash.NopLifecycle

	mu   sync.RWMutex
	tree *btree.BTreeG[item]
	log  *zap.Logger
}

// NewAdapter creates an empty in memory adapter.
func NewAdapter() *Adapter {
	return &Adapter{
		tree: btree.NewG(2, itemLess),
		log:  zap.NewNop(),
	}
}

// WithLogger sets the logger on the adapter.
func (a *Adapter) WithLogger(l *zap.Logger) {
	a.log = l
}

// SetItem stores value and extra under key.
func (a *Adapter) SetItem(ctx context.Context, key stash.Key, value stash.Value, extra stash.Extra) (stash.Item, error) {
	if err := stash.ValidateKey(key); err != nil {
		return stash.Item{}, err
	}
	doc, err := document.Encode(value, extra)
	if err != nil {
		return stash.Item{}, err
	}
	stored, err := document.Decode(key, doc)
	if err != nil {
		return stash.Item{}, err
	}

	a.mu.Lock()
	a.tree.ReplaceOrInsert(item{key: key, doc: doc})
	a.mu.Unlock()

	return *stored, nil
}

// GetItem returns the item stored under key or nil.
func (a *Adapter) GetItem(ctx context.Context, key stash.Key) (*stash.Item, error) {
	doc, ok := a.get(key)
	if !ok {
		return nil, nil
	}
	return document.Decode(key, doc)
}

// HasItem reports whether key is stored.
func (a *Adapter) HasItem(ctx context.Context, key stash.Key) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tree.Has(item{key: key}), nil
}

// RemoveItem deletes key and reports whether it was stored.
func (a *Adapter) RemoveItem(ctx context.Context, key stash.Key) (bool, error) {
	if err := stash.ValidateKey(key); err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tree.Delete(item{key: key})
	return ok, nil
}

// SetExtra replaces the extra of an existing item.
func (a *Adapter) SetExtra(ctx context.Context, key stash.Key, extra stash.Extra) (stash.Extra, error) {
	if err := stash.ValidateKey(key); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.tree.Get(item{key: key})
	if !ok {
		return nil, nil
	}
	doc, stored, err := document.ReplaceExtra(i.doc, extra)
	if err != nil {
		return nil, err
	}
	a.tree.ReplaceOrInsert(item{key: key, doc: doc})
	return stored, nil
}

// GetExtra returns the extra of the item stored under key or nil.
func (a *Adapter) GetExtra(ctx context.Context, key stash.Key) (stash.Extra, error) {
	doc, ok := a.get(key)
	if !ok {
		return nil, nil
	}
	return document.DecodeExtra(doc)
}

// CheckStorage runs the stash self-test against the adapter.
func (a *Adapter) CheckStorage(ctx context.Context) error {
	return stash.CheckStorage(ctx, a)
}

// Len returns the number of stored items.
func (a *Adapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tree.Len()
}

// Keys returns every stored key in ascending order.
func (a *Adapter) Keys() []stash.Key {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]stash.Key, 0, a.tree.Len())
	a.tree.Ascend(func(i item) bool {
		keys = append(keys, i.key)
		return true
	})
	return keys
}

// Flush removes all items.
func (a *Adapter) Flush(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tree.Clear(false)
	a.log.Debug("Flushed in memory items")
}

func (a *Adapter) get(key stash.Key) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.tree.Get(item{key: key})
	return i.doc, ok
}
