package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/internal/sqlschema"
	"github.com/influxdata/stash/internal/sqlstore"
	"github.com/influxdata/stash/sqlite/migrations"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var _ stash.Adapter = (*Adapter)(nil)

const (
	DefaultFilename = "stash.sqlite"
	InmemPath       = ":memory:"
)

// Config configures a sqlite adapter.
type Config struct {
	sqlschema.Schema

	// Path of the database file, or ":memory:".
	Path string `toml:"path"`
	// CreateTable creates the table through the migrations when it is missing.
	CreateTable bool `toml:"create-table"`
}

// Adapter is a stash.Adapter storing items as rows of a SQLite table.
// Values and extras are JSON text. The database stays open for the life
// of the adapter, so Connect and Disconnect do nothing.
type Adapter struct {
	stash.NopLifecycle

	// Mu serializes writes; SQLite allows a single writer.
	Mu      sync.Mutex
	DB      *sqlx.DB
	path    string
	queries *sqlschema.Queries
	store   *sqlstore.Store
	log     *zap.Logger
}

// NewAdapter opens the database and checks the configured table and
// columns exist.
func NewAdapter(ctx context.Context, log *zap.Logger, config Config) (*Adapter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	queries, err := sqlschema.NewQueries(config.Schema, sqlschema.SQLite)
	if err != nil {
		return nil, err
	}

	path := config.Path
	if path == "" {
		path = DefaultFilename
	}
	if path != InmemPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("unable to create directory %s: %w", path, err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// an in-memory database exists per connection, so keep exactly one.
	db.SetMaxOpenConns(1)

	a := &Adapter{
		DB:      db,
		path:    path,
		queries: queries,
		store:   sqlstore.New(queries, sqlstore.JSON),
		log:     log.With(zap.String("path", path)),
	}

	if config.CreateTable {
		if err := NewMigrator(a, a.log).Up(ctx, migrations.All); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := a.checkTable(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a.log.Info("Resources opened", zap.String("table", queries.Schema.Table))
	return a, nil
}

// Close the connection to the sqlite database
func (a *Adapter) Close() error {
	return a.DB.Close()
}

// Path returns the path of the database.
func (a *Adapter) Path() string {
	return a.path
}

// SetItem stores value and extra under key.
func (a *Adapter) SetItem(ctx context.Context, key stash.Key, value stash.Value, extra stash.Extra) (stash.Item, error) {
	a.Mu.Lock()
	defer a.Mu.Unlock()

	return a.store.SetItem(ctx, a.DB, key, value, extra)
}

// GetItem returns the item stored under key or nil.
func (a *Adapter) GetItem(ctx context.Context, key stash.Key) (*stash.Item, error) {
	return a.store.GetItem(ctx, a.DB, key)
}

// HasItem reports whether key is stored.
func (a *Adapter) HasItem(ctx context.Context, key stash.Key) (bool, error) {
	return a.store.HasItem(ctx, a.DB, key)
}

// RemoveItem deletes key and reports whether it was stored.
func (a *Adapter) RemoveItem(ctx context.Context, key stash.Key) (bool, error) {
	a.Mu.Lock()
	defer a.Mu.Unlock()

	return a.store.RemoveItem(ctx, a.DB, key)
}

// SetExtra replaces the extra of an existing item.
func (a *Adapter) SetExtra(ctx context.Context, key stash.Key, extra stash.Extra) (stash.Extra, error) {
	a.Mu.Lock()
	defer a.Mu.Unlock()

	return a.store.SetExtra(ctx, a.DB, key, extra)
}

// GetExtra returns the extra of the item stored under key or nil.
func (a *Adapter) GetExtra(ctx context.Context, key stash.Key) (stash.Extra, error) {
	return a.store.GetExtra(ctx, a.DB, key)
}

// CheckStorage runs the stash self-test against the adapter.
func (a *Adapter) CheckStorage(ctx context.Context) error {
	return stash.CheckStorage(ctx, a)
}

// Flush deletes every item.
func (a *Adapter) Flush(ctx context.Context) error {
	a.Mu.Lock()
	defer a.Mu.Unlock()

	_, err := a.DB.ExecContext(ctx, "DELETE FROM "+a.queries.Table())
	return err
}

// checkTable fails when the configured table or one of its columns is missing.
func (a *Adapter) checkTable(ctx context.Context) error {
	if err := a.store.CheckTable(ctx, a.DB); err != nil {
		return fmt.Errorf("table %s is not usable: %w", a.queries.Schema.Table, err)
	}
	return nil
}

func (a *Adapter) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := a.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// execTrans runs fn inside a single transaction.
func (a *Adapter) execTrans(ctx context.Context, fn func(*sqlx.Tx) error) error {
	a.Mu.Lock()
	defer a.Mu.Unlock()

	return a.withTx(ctx, fn)
}

// migratedVersion returns the last migration applied to table, 0 if none.
func (a *Adapter) migratedVersion(ctx context.Context, table string) (int, error) {
	var version int
	err := a.DB.GetContext(ctx, &version, `SELECT version FROM `+migrationsTable+` WHERE table_name = ?`, table)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}
