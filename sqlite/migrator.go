package sqlite

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"text/template"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// migrationsTable records the last migration applied to each item table.
const migrationsTable = "stash_migrations"

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	table_name TEXT NOT NULL PRIMARY KEY,
	version INTEGER NOT NULL
)`

// templateData is what migration scripts are rendered with.
type templateData struct {
	Table, Key, Value, Extra string
}

type Migrator struct {
	adapter *Adapter
	log     *zap.Logger
}

func NewMigrator(adapter *Adapter, log *zap.Logger) *Migrator {
	return &Migrator{
		adapter: adapter,
		log:     log,
	}
}

// Up applies every script of source newer than the version recorded for
// the adapter's table. Versions are tracked per table, so several tables
// can be migrated independently inside one database file.
func (m *Migrator) Up(ctx context.Context, source fs.FS) error {
	list, err := fs.ReadDir(source, ".")
	if err != nil {
		return err
	}

	var scripts []fs.DirEntry
	for _, f := range list {
		if strings.HasSuffix(f.Name(), ".sql") {
			scripts = append(scripts, f)
		}
	}
	if len(scripts) == 0 {
		return nil
	}
	// sort the list according to the version number to ensure the migrations are applied in the correct order
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name() < scripts[j].Name()
	})

	if err := m.adapter.execTrans(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, createMigrationsTable)
		return err
	}); err != nil {
		return fmt.Errorf("unable to create %s: %w", migrationsTable, err)
	}

	name := m.adapter.queries.Schema.Table
	current, err := m.adapter.migratedVersion(ctx, name)
	if err != nil {
		return err
	}

	final, err := scriptVersion(scripts[len(scripts)-1].Name())
	if err != nil {
		return err
	}

	if final > current {
		m.log.Info("Bringing up table migrations", zap.String("table", name), zap.Int("migration_count", final-current))
	}

	table := m.adapter.queries.Table()
	key, value, extra := m.adapter.queries.Columns()
	data := templateData{Table: table, Key: key, Value: value, Extra: extra}

	for _, f := range scripts {
		n := f.Name()
		v, err := scriptVersion(n)
		if err != nil {
			return err
		}

		// read the version on every pass so a script numbered out of order is never applied after a newer one.
		c, err := m.adapter.migratedVersion(ctx, name)
		if err != nil {
			return err
		}
		if v <= c {
			continue
		}

		m.log.Debug("Executing table migration", zap.String("migration_name", n))
		script, err := render(source, n, data)
		if err != nil {
			return err
		}
		record, args, err := sq.Insert(migrationsTable).
			Columns("table_name", "version").
			Values(name, v).
			Suffix("ON CONFLICT (table_name) DO UPDATE SET version = excluded.version").
			ToSql()
		if err != nil {
			return err
		}

		if err := m.adapter.execTrans(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, script); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, record, args...)
			return err
		}); err != nil {
			return fmt.Errorf("migration %s: %w", n, err)
		}
	}

	return nil
}
func render(source fs.FS, name string, data templateData) (string, error) {
	raw, err := fs.ReadFile(source, name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extract the version number as an integer from a file named like "0002_migration_name.sql"
func scriptVersion(filename string) (int, error) {
	vString := strings.Split(filename, "_")[0]
	vInt, err := strconv.Atoi(vString)
	if err != nil {
		return 0, err
	}

	return vInt, nil
}
