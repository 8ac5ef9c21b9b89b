package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/internal/document"
	"github.com/influxdata/stash/kit/errors"
	"github.com/opentracing/opentracing-go"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var _ stash.Adapter = (*Adapter)(nil)

// DefaultBucket is the bucket items are stored in unless configured otherwise.
const DefaultBucket = "items"

// Config configures a bolt adapter.
type Config struct {
	Path    string        `toml:"path"`
	Bucket  string        `toml:"bucket"`
	Timeout time.Duration `toml:"timeout"`
}

// Validate applies defaults and checks the config.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.Invalidf("bolt path must be set")
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Timeout == 0 {
		c.Timeout = time.Second
	}
	return nil
}

// Adapter is a stash.Adapter backed by a boltdb file. Every item is one
// JSON document in a single bucket. The file stays open between Open and
// Close, so Connect and Disconnect do nothing.
type Adapter struct {
	stash.NopLifecycle

	config Config
	bucket []byte
	log    *zap.Logger

	// mu guards db. Transactions hold a read lock so Close waits for them.
	mu sync.RWMutex
	db *bolt.DB
}

// NewAdapter returns an adapter for the file named by config. Call Open
// before use.
func NewAdapter(log *zap.Logger, config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		config: config,
		bucket: []byte(config.Bucket),
		log:    log,
	}, nil
}

// Open creates the boltdb file if it doesn't exist and opens it otherwise.
// Opening an open adapter does nothing.
func (a *Adapter) Open(ctx context.Context) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "bolt.Adapter.Open")
	defer span.Finish()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		return nil
	}

	// Ensure the required directory structure exists.
	if err := os.MkdirAll(filepath.Dir(a.config.Path), 0700); err != nil {
		return fmt.Errorf("unable to create directory %s: %v", a.config.Path, err)
	}

	db, err := bolt.Open(a.config.Path, 0600, &bolt.Options{Timeout: a.config.Timeout})
	if err != nil {
		return fmt.Errorf("unable to open boltdb file %v", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(a.bucket)
		return err
	}); err != nil {
		db.Close()
		return err
	}
	a.db = db

	a.log.Info("Resources opened", zap.String("path", a.config.Path), zap.String("bucket", a.config.Bucket))
	return nil
}

// Close the connection to the bolt database
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}

// Path returns the path of the boltdb file.
func (a *Adapter) Path() string {
	return a.config.Path
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

	if err := a.update(ctx, "SetItem", func(b *bolt.Bucket) error {
		return b.Put([]byte(key), doc)
	}); err != nil {
		return stash.Item{}, err
	}

	item, err := document.Decode(key, doc)
	if err != nil {
		return stash.Item{}, err
	}
	return *item, nil
}

// GetItem returns the item stored under key or nil.
func (a *Adapter) GetItem(ctx context.Context, key stash.Key) (*stash.Item, error) {
	doc, err := a.get(ctx, "GetItem", key)
	if err != nil || doc == nil {
		return nil, err
	}
	return document.Decode(key, doc)
}

// HasItem reports whether key is stored.
func (a *Adapter) HasItem(ctx context.Context, key stash.Key) (bool, error) {
	doc, err := a.get(ctx, "HasItem", key)
	return doc != nil, err
}

// RemoveItem deletes key and reports whether it was stored.
func (a *Adapter) RemoveItem(ctx context.Context, key stash.Key) (bool, error) {
	if err := stash.ValidateKey(key); err != nil {
		return false, err
	}

	var removed bool
	err := a.update(ctx, "RemoveItem", func(b *bolt.Bucket) error {
		if b.Get([]byte(key)) == nil {
			return nil
		}
		removed = true
		return b.Delete([]byte(key))
	})
	return removed, err
}

// SetExtra replaces the extra of an existing item.
func (a *Adapter) SetExtra(ctx context.Context, key stash.Key, extra stash.Extra) (stash.Extra, error) {
	if err := stash.ValidateKey(key); err != nil {
		return nil, err
	}

	var stored stash.Extra
	err := a.update(ctx, "SetExtra", func(b *bolt.Bucket) error {
		doc := b.Get([]byte(key))
		if doc == nil {
			return nil
		}
		updated, e, err := document.ReplaceExtra(doc, extra)
		if err != nil {
			return err
		}
		stored = e
		return b.Put([]byte(key), updated)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetExtra returns the extra of the item stored under key or nil.
func (a *Adapter) GetExtra(ctx context.Context, key stash.Key) (stash.Extra, error) {
	doc, err := a.get(ctx, "GetExtra", key)
	if err != nil || doc == nil {
		return nil, err
	}
	return document.DecodeExtra(doc)
}

// CheckStorage runs the stash self-test against the adapter.
func (a *Adapter) CheckStorage(ctx context.Context) error {
	return stash.CheckStorage(ctx, a)
}

// get returns a copy of the document stored under key or nil.
func (a *Adapter) get(ctx context.Context, op string, key stash.Key) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	var doc []byte
	err := a.view(ctx, op, func(b *bolt.Bucket) error {
		// bolt values are only valid for the life of the transaction.
		if v := b.Get([]byte(key)); v != nil {
			doc = append([]byte(nil), v...)
		}
		return nil
	})
	return doc, err
}

// view opens up a view transaction against the items bucket.
func (a *Adapter) view(ctx context.Context, op string, fn func(*bolt.Bucket) error) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "bolt.Adapter."+op)
	defer span.Finish()

	return a.withDB(op, func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			return fn(tx.Bucket(a.bucket))
		})
	})
}

// update opens up an update transaction against the items bucket.
func (a *Adapter) update(ctx context.Context, op string, fn func(*bolt.Bucket) error) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "bolt.Adapter."+op)
	defer span.Finish()

	return a.withDB(op, func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			return fn(tx.Bucket(a.bucket))
		})
	})
}

// withDB runs fn with the open database, holding off Open and Close until
// fn returns.
func (a *Adapter) withDB(op string, fn func(*bolt.DB) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.db == nil {
		return errNotOpen(op)
	}
	return fn(a.db)
}

func errNotOpen(op string) error {
	return &errors.Error{
		Code: errors.EUnavailable,
		Op:   "bolt." + op,
		Msg:  "boltdb file is not open",
	}
}
