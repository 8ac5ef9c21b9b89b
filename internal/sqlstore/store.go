// Package sqlstore implements the stash storage operations over a SQL
// table described by a sqlschema.Schema. The sqlite, postgres and mysql
// adapters differ only in how they connect, which dialect they speak and
// how a stored value is laid out.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/influxdata/stash"
	"github.com/influxdata/stash/internal/sqlschema"
	"github.com/jmoiron/sqlx"
)

// Codec converts a value to and from its column representation.
type Codec interface {
	EncodeValue(stash.Value) ([]byte, error)
	DecodeValue([]byte) (stash.Value, error)
}

// JSON stores a value as its plain JSON encoding.
var JSON Codec = jsonCodec{}

// Wrapped stores a value as {"value": v}, so that scalars land in a JSON
// object column.
var Wrapped Codec = wrappedCodec{}

type jsonCodec struct{}

func (jsonCodec) EncodeValue(v stash.Value) ([]byte, error) {
	return stash.MarshalValue(v)
}

func (jsonCodec) DecodeValue(b []byte) (stash.Value, error) {
	var v stash.Value
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type wrapper struct {
	Value json.RawMessage `json:"value"`
}

type wrappedCodec struct{}

func (wrappedCodec) EncodeValue(v stash.Value) ([]byte, error) {
	b, err := stash.MarshalValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wrapper{Value: b})
}

func (wrappedCodec) DecodeValue(b []byte) (stash.Value, error) {
	var w wrapper
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	if len(w.Value) == 0 {
		return nil, nil
	}
	return JSON.DecodeValue(w.Value)
}

// Store runs item statements against any sqlx handle.
type Store struct {
	Queries *sqlschema.Queries
	Codec   Codec
	// MapError translates driver errors, for instance a missing table,
	// into stash errors. It may be nil.
	MapError func(error) error
}

// New returns a Store for queries using codec.
func New(queries *sqlschema.Queries, codec Codec) *Store {
	return &Store{Queries: queries, Codec: codec}
}

// SetItem upserts key.
func (s *Store) SetItem(ctx context.Context, db sqlx.ExtContext, key stash.Key, value stash.Value, extra stash.Extra) (stash.Item, error) {
	if err := stash.ValidateKey(key); err != nil {
		return stash.Item{}, err
	}
	v, err := s.Codec.EncodeValue(value)
	if err != nil {
		return stash.Item{}, err
	}
	e, err := stash.MarshalExtra(extra)
	if err != nil {
		return stash.Item{}, err
	}

	query, args, err := s.Queries.Upsert(key, string(v), string(e))
	if err != nil {
		return stash.Item{}, err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return stash.Item{}, s.mapError(err)
	}

	item, err := s.decode(key, v, e)
	if err != nil {
		return stash.Item{}, err
	}
	return *item, nil
}

// GetItem returns the item stored under key or nil.
func (s *Store) GetItem(ctx context.Context, db sqlx.QueryerContext, key stash.Key) (*stash.Item, error) {
	query, args, err := s.Queries.Select(key)
	if err != nil {
		return nil, err
	}

	var v, e []byte
	if err := db.QueryRowxContext(ctx, query, args...).Scan(&v, &e); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, s.mapError(err)
	}
	return s.decode(key, v, e)
}

// HasItem reports whether key is stored.
func (s *Store) HasItem(ctx context.Context, db sqlx.QueryerContext, key stash.Key) (bool, error) {
	query, args, err := s.Queries.Exists(key)
	if err != nil {
		return false, err
	}

	var one int
	if err := sqlx.GetContext(ctx, db, &one, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, s.mapError(err)
	}
	return true, nil
}

// RemoveItem deletes key and reports whether a row was deleted.
func (s *Store) RemoveItem(ctx context.Context, db sqlx.ExecerContext, key stash.Key) (bool, error) {
	if err := stash.ValidateKey(key); err != nil {
		return false, err
	}
	query, args, err := s.Queries.Delete(key)
	if err != nil {
		return false, err
	}
	return s.affected(ctx, db, query, args)
}

// SetExtra replaces the extra of an existing row. It returns nil when key
// is not stored.
func (s *Store) SetExtra(ctx context.Context, db sqlx.ExecerContext, key stash.Key, extra stash.Extra) (stash.Extra, error) {
	if err := stash.ValidateKey(key); err != nil {
		return nil, err
	}
	e, err := stash.MarshalExtra(extra)
	if err != nil {
		return nil, err
	}
	query, args, err := s.Queries.UpdateExtra(key, string(e))
	if err != nil {
		return nil, err
	}

	ok, err := s.affected(ctx, db, query, args)
	if err != nil || !ok {
		return nil, err
	}
	return stash.UnmarshalExtra(e)
}

// GetExtra returns the extra stored under key or nil.
func (s *Store) GetExtra(ctx context.Context, db sqlx.QueryerContext, key stash.Key) (stash.Extra, error) {
	query, args, err := s.Queries.SelectExtra(key)
	if err != nil {
		return nil, err
	}

	var e []byte
	if err := sqlx.GetContext(ctx, db, &e, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, s.mapError(err)
	}
	return stash.UnmarshalExtra(e)
}

// CheckTable fails when the table or one of its columns is missing.
func (s *Store) CheckTable(ctx context.Context, db sqlx.QueryerContext) error {
	query, args, err := s.Queries.CheckTable()
	if err != nil {
		return err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return s.mapError(err)
	}
	return rows.Close()
}

func (s *Store) affected(ctx context.Context, db sqlx.ExecerContext, query string, args []interface{}) (bool, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, s.mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) decode(key stash.Key, v, e []byte) (*stash.Item, error) {
	value, err := s.Codec.DecodeValue(v)
	if err != nil {
		return nil, err
	}
	extra, err := stash.UnmarshalExtra(e)
	if err != nil {
		return nil, err
	}
	return &stash.Item{Key: key, Value: value, Extra: extra}, nil
}

func (s *Store) mapError(err error) error {
	if s.MapError == nil {
		return err
	}
	return s.MapError(err)
}
