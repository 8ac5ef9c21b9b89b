package sqlschema

import (
	"testing"

	"github.com/influxdata/stash/kit/errors"
	"github.com/stretchr/testify/require"
)

func TestSchema_Validate(t *testing.T) {
	var s Schema
	require.NoError(t, s.Validate())
	require.Equal(t, Schema{Table: "items", KeyColumn: "key", ValueColumn: "value", ExtraColumn: "extra"}, s)

	for _, bad := range []Schema{
		{Table: "items; DROP TABLE users"},
		{KeyColumn: "1key"},
		{ValueColumn: `va"lue`},
		{ExtraColumn: "ex tra"},
	} {
		err := bad.Validate()
		require.Error(t, err)
		require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
	}
}

func TestQueries(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		build   func(q *Queries) (string, []interface{}, error)
		sql     string
		args    []interface{}
	}{
		{
			name:    "sqlite select",
			dialect: SQLite,
			build:   func(q *Queries) (string, []interface{}, error) { return q.Select("k") },
			sql:     `SELECT "v", "e" FROM "t" WHERE "k" = ?`,
			args:    []interface{}{"k"},
		},
		{
			name:    "postgres update extra",
			dialect: Postgres,
			build:   func(q *Queries) (string, []interface{}, error) { return q.UpdateExtra("k", "{}") },
			sql:     `UPDATE "t" SET "e" = $1 WHERE "k" = $2`,
			args:    []interface{}{"{}", "k"},
		},
		{
			name:    "sqlite upsert",
			dialect: SQLite,
			build:   func(q *Queries) (string, []interface{}, error) { return q.Upsert("k", "1", "{}") },
			sql:     `INSERT INTO "t" ("k","v","e") VALUES (?,?,?) ON CONFLICT ("k") DO UPDATE SET "v" = excluded."v", "e" = excluded."e"`,
			args:    []interface{}{"k", "1", "{}"},
		},
		{
			name:    "postgres upsert",
			dialect: Postgres,
			build:   func(q *Queries) (string, []interface{}, error) { return q.Upsert("k", "1", "{}") },
			sql:     `INSERT INTO "t" ("k","v","e") VALUES ($1,$2,$3) ON CONFLICT ("k") DO UPDATE SET "v" = excluded."v", "e" = excluded."e"`,
			args:    []interface{}{"k", "1", "{}"},
		},
		{
			name:    "mysql upsert",
			dialect: MySQL,
			build:   func(q *Queries) (string, []interface{}, error) { return q.Upsert("k", "1", "{}") },
			sql:     "INSERT INTO `t` (`k`,`v`,`e`) VALUES (?,?,?) ON DUPLICATE KEY UPDATE `v` = VALUES(`v`), `e` = VALUES(`e`)",
			args:    []interface{}{"k", "1", "{}"},
		},
		{
			name:    "exists",
			dialect: Postgres,
			build:   func(q *Queries) (string, []interface{}, error) { return q.Exists("k") },
			sql:     `SELECT 1 FROM "t" WHERE "k" = $1 LIMIT 1`,
			args:    []interface{}{"k"},
		},
		{
			name:    "delete",
			dialect: SQLite,
			build:   func(q *Queries) (string, []interface{}, error) { return q.Delete("k") },
			sql:     `DELETE FROM "t" WHERE "k" = ?`,
			args:    []interface{}{"k"},
		},
		{
			name:    "update extra",
			dialect: MySQL,
			build:   func(q *Queries) (string, []interface{}, error) { return q.UpdateExtra("k", "{}") },
			sql:     "UPDATE `t` SET `e` = ? WHERE `k` = ?",
			args:    []interface{}{"{}", "k"},
		},
		{
			name:    "check table",
			dialect: SQLite,
			build:   func(q *Queries) (string, []interface{}, error) { return q.CheckTable() },
			sql:     `SELECT "k", "v", "e" FROM "t" LIMIT 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQueries(Schema{Table: "t", KeyColumn: "k", ValueColumn: "v", ExtraColumn: "e"}, tt.dialect)
			require.NoError(t, err)

			sql, args, err := tt.build(q)
			require.NoError(t, err)
			require.Equal(t, tt.sql, sql)
			if tt.args == nil {
				require.Empty(t, args)
			} else {
				require.Equal(t, tt.args, args)
			}
		})
	}
}
