// Package sqlschema builds the item queries shared by the SQL adapters. The
// table and column names are configurable, so they are validated as plain
// identifiers and quoted per dialect.
package sqlschema

import (
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	"github.com/influxdata/stash/kit/errors"
)

// Defaults for Schema.
const (
	DefaultTable       = "items"
	DefaultKeyColumn   = "key"
	DefaultValueColumn = "value"
	DefaultExtraColumn = "extra"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema names the table and columns items are stored in.
type Schema struct {
	Table       string `toml:"table"`
	KeyColumn   string `toml:"key-column"`
	ValueColumn string `toml:"value-column"`
	ExtraColumn string `toml:"extra-column"`
}

// Validate applies defaults and checks every name is a plain identifier.
func (s *Schema) Validate() error {
	if s.Table == "" {
		s.Table = DefaultTable
	}
	if s.KeyColumn == "" {
		s.KeyColumn = DefaultKeyColumn
	}
	if s.ValueColumn == "" {
		s.ValueColumn = DefaultValueColumn
	}
	if s.ExtraColumn == "" {
		s.ExtraColumn = DefaultExtraColumn
	}

	for _, name := range []string{s.Table, s.KeyColumn, s.ValueColumn, s.ExtraColumn} {
		if !identifierPattern.MatchString(name) {
			return errors.Invalidf("invalid SQL identifier %q", name)
		}
	}
	return nil
}

// Dialect captures how a database quotes identifiers, numbers placeholders
// and turns an insert into an upsert.
type Dialect struct {
	Quote       func(string) string
	Placeholder sq.PlaceholderFormat
	// Upsert returns the clause appended to an insert of key, value and
	// extra so that a conflicting key overwrites the stored row.
	Upsert func(key, value, extra string) string
}

func doubleQuote(name string) string { return `"` + name + `"` }

func backtick(name string) string { return "`" + name + "`" }

func onConflict(key, value, extra string) string {
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s = excluded.%s, %s = excluded.%s", key, value, value, extra, extra)
}

func onDuplicateKey(_, value, extra string) string {
	return fmt.Sprintf("ON DUPLICATE KEY UPDATE %s = VALUES(%s), %s = VALUES(%s)", value, value, extra, extra)
}

// Supported dialects.
var (
	SQLite   = Dialect{Quote: doubleQuote, Placeholder: sq.Question, Upsert: onConflict}
	MySQL    = Dialect{Quote: backtick, Placeholder: sq.Question, Upsert: onDuplicateKey}
	Postgres = Dialect{Quote: doubleQuote, Placeholder: sq.Dollar, Upsert: onConflict}
)

// Queries builds item statements for one schema in one dialect.
type Queries struct {
	Schema Schema

	table, key, value, extra string
	upsert                   string
	builder                  sq.StatementBuilderType
}

// NewQueries validates schema and returns its query builder.
func NewQueries(schema Schema, d Dialect) (*Queries, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	q := &Queries{
		Schema:  schema,
		table:   d.Quote(schema.Table),
		key:     d.Quote(schema.KeyColumn),
		value:   d.Quote(schema.ValueColumn),
		extra:   d.Quote(schema.ExtraColumn),
		builder: sq.StatementBuilder.PlaceholderFormat(d.Placeholder),
	}
	q.upsert = d.Upsert(q.key, q.value, q.extra)
	return q, nil
}

// Table returns the quoted table name.
func (q *Queries) Table() string { return q.table }

// Columns returns the quoted key, value and extra column names.
func (q *Queries) Columns() (key, value, extra string) { return q.key, q.value, q.extra }

// CheckTable selects nothing but fails if the table or a column is missing.
func (q *Queries) CheckTable() (string, []interface{}, error) {
	return q.builder.Select(q.key, q.value, q.extra).From(q.table).Limit(1).ToSql()
}

// Exists selects 1 when key is stored.
func (q *Queries) Exists(key string) (string, []interface{}, error) {
	return q.builder.Select("1").From(q.table).Where(sq.Eq{q.key: key}).Limit(1).ToSql()
}

// Select selects the value and extra stored under key.
func (q *Queries) Select(key string) (string, []interface{}, error) {
	return q.builder.Select(q.value, q.extra).From(q.table).Where(sq.Eq{q.key: key}).ToSql()
}

// SelectExtra selects the extra stored under key.
func (q *Queries) SelectExtra(key string) (string, []interface{}, error) {
	return q.builder.Select(q.extra).From(q.table).Where(sq.Eq{q.key: key}).ToSql()
}

// Upsert inserts a row or overwrites the one stored under key.
func (q *Queries) Upsert(key string, value, extra interface{}) (string, []interface{}, error) {
	return q.builder.Insert(q.table).
		Columns(q.key, q.value, q.extra).
		Values(key, value, extra).
		Suffix(q.upsert).
		ToSql()
}

// UpdateExtra replaces only the extra of the row stored under key.
func (q *Queries) UpdateExtra(key string, extra interface{}) (string, []interface{}, error) {
	return q.builder.Update(q.table).Set(q.extra, extra).Where(sq.Eq{q.key: key}).ToSql()
}

// Delete deletes the row stored under key.
func (q *Queries) Delete(key string) (string, []interface{}, error) {
	return q.builder.Delete(q.table).Where(sq.Eq{q.key: key}).ToSql()
}
