// Package nats stores items in a NATS JetStream key/value bucket. Each
// item is one JSON document holding its value and extra.
package nats

import (
	"context"
	"errors"
	"time"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/internal/document"
	"github.com/influxdata/stash/internal/refconn"
	kerrors "github.com/influxdata/stash/kit/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

var _ stash.Adapter = (*Adapter)(nil)

// Defaults for Config.
const (
	DefaultBucket  = "stash"
	DefaultTimeout = 5 * time.Second
	// DefaultMaxRetries bounds the compare-and-swap attempts of SetExtra and
	// RemoveItem when the entry changes concurrently.
	DefaultMaxRetries = 10
)

// Config configures a nats adapter.
type Config struct {
	URL    string `toml:"url"`
	Bucket string `toml:"bucket"`
	// CreateBucket creates the bucket on Connect when it is missing.
	CreateBucket bool          `toml:"create-bucket"`
	Timeout      time.Duration `toml:"timeout"`
	MaxRetries   int           `toml:"max-retries"`
}

// Validate applies defaults.
func (c *Config) Validate() error {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return nil
}

// bucket is the part of jetstream.KeyValue the adapter uses.
type bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
}

type session struct {
	nc *nats.Conn
	kv bucket
}

// Adapter is a stash.Adapter backed by a JetStream key/value bucket.
// Connect dials the server and binds the bucket, Disconnect drains the
// connection once every Connect is matched.
type Adapter struct {
	config Config
	conn   *refconn.Conn[*session]
	log    *zap.Logger
}

// NewAdapter returns an unconnected adapter.
func NewAdapter(log *zap.Logger, config Config) (*Adapter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		config: config,
		log:    log.With(zap.String("bucket", config.Bucket)),
	}
	a.conn = refconn.New(a.dial, a.hangup)
	return a, nil
}

func (a *Adapter) dial(ctx context.Context) (*session, error) {
	opts := append([]nats.Option{
		nats.Name("stash"),
		nats.Timeout(a.config.Timeout),
	}, connectionHandlers(a.log)...)

	nc, err := nats.Connect(a.config.URL, opts...)
	if err != nil {
		return nil, &kerrors.Error{
			Code: kerrors.EUnavailable,
			Op:   "nats.Connect",
			Msg:  "failed to connect to NATS",
			Err:  err,
		}
	}

	kv, err := a.bind(ctx, nc)
	if err != nil {
		nc.Close()
		return nil, err
	}

	a.log.Debug("Connected", zap.String("url", nc.ConnectedUrlRedacted()))
	return &session{nc: nc, kv: kv}, nil
}

func (a *Adapter) bind(ctx context.Context, nc *nats.Conn) (jetstream.KeyValue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, a.config.Bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) || !a.config.CreateBucket {
		return nil, err
	}

	a.log.Info("Creating bucket")
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  a.config.Bucket,
		History: 1,
	})
	if errors.Is(err, jetstream.ErrBucketExists) {
		// created concurrently
		return js.KeyValue(ctx, a.config.Bucket)
	}
	return kv, err
}

func (a *Adapter) hangup(_ context.Context, s *session) error {
	if s.nc == nil {
		return nil
	}
	a.log.Debug("Disconnecting")
	return s.nc.Drain()
}

// Connect dials the server and binds the bucket.
func (a *Adapter) Connect(ctx context.Context) error {
	return a.conn.Acquire(ctx)
}

// Disconnect drains the connection once every Connect is matched.
func (a *Adapter) Disconnect(ctx context.Context) error {
	return a.conn.Release(ctx)
}

// SetItem puts key.
func (a *Adapter) SetItem(ctx context.Context, key stash.Key, value stash.Value, extra stash.Extra) (stash.Item, error) {
	if err := stash.ValidateKey(key); err != nil {
		return stash.Item{}, err
	}
	s, err := a.conn.Get("nats.SetItem")
	if err != nil {
		return stash.Item{}, err
	}
	b, err := document.Encode(value, extra)
	if err != nil {
		return stash.Item{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if _, err := s.kv.Put(ctx, key, b); err != nil {
		return stash.Item{}, err
	}
	item, err := document.Decode(key, b)
	if err != nil {
		return stash.Item{}, err
	}
	return *item, nil
}

// GetItem returns the item stored under key or nil.
func (a *Adapter) GetItem(ctx context.Context, key stash.Key) (*stash.Item, error) {
	s, err := a.conn.Get("nats.GetItem")
	if err != nil {
		return nil, err
	}
	entry, err := a.get(ctx, s, key)
	if err != nil || entry == nil {
		return nil, err
	}
	return document.Decode(key, entry.Value())
}

// HasItem reports whether key is stored.
func (a *Adapter) HasItem(ctx context.Context, key stash.Key) (bool, error) {
	s, err := a.conn.Get("nats.HasItem")
	if err != nil {
		return false, err
	}
	entry, err := a.get(ctx, s, key)
	return entry != nil, err
}

// RemoveItem deletes key and reports whether it was stored.
func (a *Adapter) RemoveItem(ctx context.Context, key stash.Key) (bool, error) {
	if err := stash.ValidateKey(key); err != nil {
		return false, err
	}
	s, err := a.conn.Get("nats.RemoveItem")
	if err != nil {
		return false, err
	}

	var removed bool
	err = a.swap(ctx, s, key, func(ctx context.Context, entry jetstream.KeyValueEntry) error {
		removed = entry != nil
		if !removed {
			return nil
		}
		return s.kv.Delete(ctx, key, jetstream.LastRevision(entry.Revision()))
	})
	return removed, err
}

// SetExtra replaces the extra of an existing item, keeping its value.
func (a *Adapter) SetExtra(ctx context.Context, key stash.Key, extra stash.Extra) (stash.Extra, error) {
	if err := stash.ValidateKey(key); err != nil {
		return nil, err
	}
	s, err := a.conn.Get("nats.SetExtra")
	if err != nil {
		return nil, err
	}

	var stored stash.Extra
	err = a.swap(ctx, s, key, func(ctx context.Context, entry jetstream.KeyValueEntry) error {
		stored = nil
		if entry == nil {
			return nil
		}
		b, e, err := document.ReplaceExtra(entry.Value(), extra)
		if err != nil {
			return err
		}
		if _, err := s.kv.Update(ctx, key, b, entry.Revision()); err != nil {
			return err
		}
		stored = e
		return nil
	})
	return stored, err
}

// GetExtra returns the extra of the item stored under key or nil.
func (a *Adapter) GetExtra(ctx context.Context, key stash.Key) (stash.Extra, error) {
	s, err := a.conn.Get("nats.GetExtra")
	if err != nil {
		return nil, err
	}
	entry, err := a.get(ctx, s, key)
	if err != nil || entry == nil {
		return nil, err
	}
	return document.DecodeExtra(entry.Value())
}

// CheckStorage runs the stash self-test against the adapter.
func (a *Adapter) CheckStorage(ctx context.Context) error {
	return stash.CheckStorage(ctx, a)
}

// get returns the entry stored under key, or nil when there is none.
// Keys that could never have been stored are not sent to the server.
func (a *Adapter) get(ctx context.Context, s *session, key stash.Key) (jetstream.KeyValueEntry, error) {
	if !stash.ValidKey(key) {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return nil, nil
	}
	return entry, err
}

// swap runs fn with the current entry, retrying when fn's revision
// checked write loses a race.
func (a *Adapter) swap(ctx context.Context, s *session, key stash.Key, fn func(context.Context, jetstream.KeyValueEntry) error) error {
	for attempt := 1; ; attempt++ {
		entry, err := a.get(ctx, s, key)
		if err != nil {
			return err
		}

		wctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		err = fn(wctx, entry)
		cancel()

		if !revisionConflict(err) {
			return err
		}
		if attempt >= a.config.MaxRetries {
			return &kerrors.Error{
				Code: kerrors.EConflict,
				Msg:  "item changed concurrently",
				Err:  err,
			}
		}
		a.log.Debug("Revision conflict, retrying", zap.String("key", key), zap.Int("attempt", attempt))
	}
}

// revisionConflict reports whether err is a lost revision check. Update
// reports it as ErrKeyExists, a revision checked Delete as the raw API error.
func revisionConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}
