// Package mysql stores items in a MySQL table with JSON value and extra
// columns.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/influxdata/stash"
	"github.com/influxdata/stash/internal/refconn"
	"github.com/influxdata/stash/internal/sqlschema"
	"github.com/influxdata/stash/internal/sqlstore"
	kerrors "github.com/influxdata/stash/kit/errors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var _ stash.Adapter = (*Adapter)(nil)

// MySQL error numbers the adapter translates.
const (
	errNoSuchTable = 1146
	errBadField    = 1054
)

// DefaultConnectTimeout bounds dialing and the ping run by Connect.
const DefaultConnectTimeout = 5 * time.Second

// Config configures a mysql adapter.
type Config struct {
	sqlschema.Schema

	// DSN is a go-sql-driver data source name, e.g. user:pass@tcp(host:3306)/db.
	DSN string `toml:"dsn"`
	// CreateTable creates the table on Connect when it is missing.
	CreateTable    bool          `toml:"create-table"`
	ConnectTimeout time.Duration `toml:"connect-timeout"`
}

// Validate applies defaults and checks the configuration.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return kerrors.Invalidf("mysql dsn is required")
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	return c.Schema.Validate()
}

// driverConfig parses the DSN and sets the options the adapter relies
// on. Affected row counts must report matched rows, otherwise SetExtra
// with an unchanged extra would look like a missing key.
func (c Config) driverConfig() (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(c.DSN)
	if err != nil {
		return nil, &kerrors.Error{
			Code: kerrors.EInvalid,
			Msg:  "invalid mysql dsn",
			Err:  err,
		}
	}
	cfg.ClientFoundRows = true
	if cfg.Timeout == 0 {
		cfg.Timeout = c.ConnectTimeout
	}
	return cfg, nil
}

// Adapter is a stash.Adapter backed by MySQL. Connect opens a connection
// pool shared by overlapping operations and Disconnect closes it with the
// last one.
type Adapter struct {
	config Config
	driver *mysql.Config
	conn   *refconn.Conn[*sqlx.DB]
	store  *sqlstore.Store
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
	driver, err := config.driverConfig()
	if err != nil {
		return nil, err
	}
	queries, err := sqlschema.NewQueries(config.Schema, sqlschema.MySQL)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		config: config,
		driver: driver,
		store:  sqlstore.New(queries, sqlstore.JSON),
		log:    log.With(zap.String("table", config.Schema.Table), zap.String("addr", driver.Addr)),
	}
	a.store.MapError = a.mapError
	a.conn = refconn.New(a.dial, a.hangup)
	return a, nil
}

func (a *Adapter) dial(ctx context.Context) (*sqlx.DB, error) {
	connector, err := mysql.NewConnector(a.driver)
	if err != nil {
		return nil, err
	}
	db := sqlx.NewDb(sql.OpenDB(connector), "mysql")

	ctx, cancel := context.WithTimeout(ctx, a.config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &kerrors.Error{
			Code: kerrors.EUnavailable,
			Op:   "mysql.Connect",
			Msg:  "failed to ping database",
			Err:  err,
		}
	}
	if a.config.CreateTable {
		if _, err := db.ExecContext(ctx, a.createTable()); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}

	a.log.Debug("Connected")
	return db, nil
}

func (a *Adapter) hangup(_ context.Context, db *sqlx.DB) error {
	a.log.Debug("Disconnecting")
	return db.Close()
}

func (a *Adapter) createTable() string {
	key, value, extra := a.store.Queries.Columns()
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(255) NOT NULL PRIMARY KEY, %s JSON NOT NULL, %s JSON NOT NULL)",
		a.store.Queries.Table(), key, value, extra,
	)
}

// mapError reports a missing table or column as a stash error.
func (a *Adapter) mapError(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case errNoSuchTable, errBadField:
		return &kerrors.Error{
			Code: kerrors.EInternal,
			Msg:  fmt.Sprintf("table %s does not match the configured schema", a.config.Schema.Table),
			Err:  err,
		}
	}
	return err
}

// Connect opens the connection.
func (a *Adapter) Connect(ctx context.Context) error {
	return a.conn.Acquire(ctx)
}

// Disconnect closes the connection once every Connect is matched.
func (a *Adapter) Disconnect(ctx context.Context) error {
	return a.conn.Release(ctx)
}

// SetItem upserts key.
func (a *Adapter) SetItem(ctx context.Context, key stash.Key, value stash.Value, extra stash.Extra) (stash.Item, error) {
	db, err := a.conn.Get("mysql.SetItem")
	if err != nil {
		return stash.Item{}, err
	}
	return a.store.SetItem(ctx, db, key, value, extra)
}

// GetItem returns the item stored under key or nil.
func (a *Adapter) GetItem(ctx context.Context, key stash.Key) (*stash.Item, error) {
	db, err := a.conn.Get("mysql.GetItem")
	if err != nil {
		return nil, err
	}
	return a.store.GetItem(ctx, db, key)
}

// HasItem reports whether key is stored.
func (a *Adapter) HasItem(ctx context.Context, key stash.Key) (bool, error) {
	db, err := a.conn.Get("mysql.HasItem")
	if err != nil {
		return false, err
	}
	return a.store.HasItem(ctx, db, key)
}

// RemoveItem deletes key and reports whether it was stored.
func (a *Adapter) RemoveItem(ctx context.Context, key stash.Key) (bool, error) {
	db, err := a.conn.Get("mysql.RemoveItem")
	if err != nil {
		return false, err
	}
	return a.store.RemoveItem(ctx, db, key)
}

// SetExtra replaces the extra of an existing item.
func (a *Adapter) SetExtra(ctx context.Context, key stash.Key, extra stash.Extra) (stash.Extra, error) {
	db, err := a.conn.Get("mysql.SetExtra")
	if err != nil {
		return nil, err
	}
	return a.store.SetExtra(ctx, db, key, extra)
}

// GetExtra returns the extra of the item stored under key or nil.
func (a *Adapter) GetExtra(ctx context.Context, key stash.Key) (stash.Extra, error) {
	db, err := a.conn.Get("mysql.GetExtra")
	if err != nil {
		return nil, err
	}
	return a.store.GetExtra(ctx, db, key)
}

// CheckStorage runs the stash self-test against the adapter.
func (a *Adapter) CheckStorage(ctx context.Context) error {
	return stash.CheckStorage(ctx, a)
}
