package main

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/bolt"
	"github.com/influxdata/stash/inmem"
	"github.com/influxdata/stash/internal/sqlschema"
	"github.com/influxdata/stash/kit/cli"
	"github.com/influxdata/stash/kit/errors"
	"github.com/influxdata/stash/mysql"
	"github.com/influxdata/stash/nats"
	"github.com/influxdata/stash/plugins/logging"
	"github.com/influxdata/stash/plugins/prefix"
	"github.com/influxdata/stash/plugins/readonly"
	"github.com/influxdata/stash/plugins/ttl"
	"github.com/influxdata/stash/postgres"
	"github.com/influxdata/stash/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Adapter names accepted by --adapter.
const (
	adapterMemory   = "memory"
	adapterBolt     = "bolt"
	adapterSQLite   = "sqlite"
	adapterPostgres = "postgres"
	adapterMySQL    = "mysql"
	adapterNATS     = "nats"
)

type options struct {
	adapter string

	boltPath   string
	boltBucket string

	sqlitePath  string
	createTable bool
	schema      sqlschema.Schema

	postgresDSN string
	mysqlDSN    string

	natsURL    string
	natsBucket string

	prefix   string
	suffix   string
	readOnly bool
	ttl      time.Duration

	logLevel  zapcore.Level
	logFormat string
	logHooks  bool
}

func (o *options) opts() []cli.Opt {
	opts := []cli.Opt{
		cli.NewOpt(&o.adapter, "adapter", adapterBolt, "storage adapter: memory, bolt, sqlite, postgres, mysql or nats"),
		cli.NewOpt(&o.boltPath, "bolt-path", "stash.bolt", "path to the bolt database file"),
		cli.NewOpt(&o.boltBucket, "bolt-bucket", bolt.DefaultBucket, "bolt bucket holding the items"),
		cli.NewOpt(&o.sqlitePath, "sqlite-path", sqlite.DefaultFilename, "path to the sqlite database file"),
		cli.NewOpt(&o.createTable, "create-table", true, "create the SQL table or NATS bucket when missing"),
		cli.NewOpt(&o.schema.Table, "table", sqlschema.DefaultTable, "SQL table holding the items"),
		cli.NewOpt(&o.schema.KeyColumn, "key-column", sqlschema.DefaultKeyColumn, "SQL column holding the key"),
		cli.NewOpt(&o.schema.ValueColumn, "value-column", sqlschema.DefaultValueColumn, "SQL column holding the value"),
		cli.NewOpt(&o.schema.ExtraColumn, "extra-column", sqlschema.DefaultExtraColumn, "SQL column holding the extra"),
		cli.NewOpt(&o.postgresDSN, "postgres-dsn", "", "postgres connection string"),
		cli.NewOpt(&o.mysqlDSN, "mysql-dsn", "", "mysql data source name"),
		cli.NewOpt(&o.natsURL, "nats-url", "", "NATS server URL"),
		cli.NewOpt(&o.natsBucket, "nats-bucket", nats.DefaultBucket, "JetStream key/value bucket holding the items"),
		cli.NewOpt(&o.prefix, "prefix", "", "prefix added to every key"),
		cli.NewOpt(&o.suffix, "suffix", "", "suffix added to every key"),
		cli.NewOpt(&o.readOnly, "read-only", false, "reject every write"),
		cli.NewOpt(&o.ttl, "ttl", time.Duration(0), "expire items this long after they were written; 0 disables"),
		cli.NewOpt(&o.logLevel, "log-level", zapcore.WarnLevel, "log level: debug, info, warn or error"),
		cli.NewOpt(&o.logFormat, "log-format", "auto", "log format: auto, console, json or logfmt"),
		cli.NewOpt(&o.logHooks, "log-hooks", false, "log every hook invocation at debug level"),
	}
	for i := range opts {
		opts[i].Persistent = true
	}
	return opts
}

// newAdapter builds the configured adapter. The returned func releases
// resources held beyond Connect/Disconnect.
func (o *options) newAdapter(ctx context.Context, log *zap.Logger) (stash.Adapter, func() error, error) {
	nop := func() error { return nil }

	switch o.adapter {
	case adapterMemory:
		a := inmem.NewAdapter()
		a.WithLogger(log)
		return a, nop, nil
	case adapterBolt:
		a, err := bolt.NewAdapter(log, bolt.Config{Path: o.boltPath, Bucket: o.boltBucket})
		if err != nil {
			return nil, nil, err
		}
		if err := a.Open(ctx); err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case adapterSQLite:
		a, err := sqlite.NewAdapter(ctx, log, sqlite.Config{
			Schema:      o.schema,
			Path:        o.sqlitePath,
			CreateTable: o.createTable,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case adapterPostgres:
		a, err := postgres.NewAdapter(log, postgres.Config{
			Schema:      o.schema,
			DSN:         o.postgresDSN,
			CreateTable: o.createTable,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, nop, nil
	case adapterMySQL:
		a, err := mysql.NewAdapter(log, mysql.Config{
			Schema:      o.schema,
			DSN:         o.mysqlDSN,
			CreateTable: o.createTable,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, nop, nil
	case adapterNATS:
		a, err := nats.NewAdapter(log, nats.Config{
			URL:          o.natsURL,
			Bucket:       o.natsBucket,
			CreateBucket: o.createTable,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, nop, nil
	}
	return nil, nil, errors.Invalidf("unknown adapter %q", o.adapter)
}

// plugins builds the plugins enabled by the options, in registration order.
func (o *options) plugins(log *zap.Logger) ([]stash.Plugin, error) {
	var plugins []stash.Plugin

	if o.logHooks {
		plugins = append(plugins, logging.New(log, zapcore.DebugLevel))
	}
	if o.readOnly {
		plugins = append(plugins, readonly.New(readonly.Options{}))
	}
	if o.prefix != "" || o.suffix != "" {
		p, err := prefix.New(prefix.Options{Prefix: o.prefix, Suffix: o.suffix})
		if err != nil {
			return nil, fmt.Errorf("prefix: %w", err)
		}
		plugins = append(plugins, p)
	}
	if o.ttl != 0 {
		p, err := ttl.New(ttl.Options{TTL: o.ttl})
		if err != nil {
			return nil, fmt.Errorf("ttl: %w", err)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}
