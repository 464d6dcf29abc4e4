package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/lib/pq"
)

// PostgresStore keeps every collection in one JSONB table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	key TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
)`

// EnsureSchema creates the documents table when missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, collection, key string) (Record, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND key = $2`,
		collection, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

const (
	upsertMerge = `INSERT INTO documents (collection, key, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, key) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`
	upsertReplace = `INSERT INTO documents (collection, key, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	insertAbsent = `INSERT INTO documents (collection, key, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, key) DO NOTHING`
)

// updateAttempts bounds how often Update re-runs after losing an insert race.
const updateAttempts = 3

var errInsertRace = errors.New("docstore: concurrent insert")

func (p *PostgresStore) Set(ctx context.Context, collection, key string, fields Record, merge bool) error {
	b, err := encodeRecord(fields)
	if err != nil {
		return err
	}
	q := upsertReplace
	if merge {
		q = upsertMerge
	}
	_, err = p.db.ExecContext(ctx, q, collection, key, string(b))
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, collection, key string) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Stream(ctx context.Context, collection string) Iterator {
	rows, err := p.db.QueryContext(ctx,
		`SELECT collection, key, data FROM documents WHERE collection = $1 ORDER BY key`, collection)
	if err != nil {
		return errIterator{err: err}
	}
	return &rowsIterator{rows: rows}
}

// StreamGroup reads all collections with a single query.
func (p *PostgresStore) StreamGroup(ctx context.Context, collections []string) Iterator {
	if len(collections) == 0 {
		return &sliceIterator{}
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT collection, key, data FROM documents WHERE collection = ANY($1::text[]) ORDER BY collection, key`,
		pq.Array(collections))
	if err != nil {
		return errIterator{err: err}
	}
	return &rowsIterator{rows: rows}
}

func (p *PostgresStore) Collections(ctx context.Context, docPath string) ([]string, error) {
	// substr is 1-based and counts characters
	rows, err := p.db.QueryContext(ctx,
		`SELECT DISTINCT split_part(substr(collection, $2), '/', 1) FROM documents WHERE starts_with(collection, $1) ORDER BY 1`,
		docPath+"/", utf8.RuneCountInString(docPath)+2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id != "" {
			out = append(out, id)
		}
	}
	return out, rows.Err()
}

const incrementField = `INSERT INTO documents (collection, key, data) VALUES ($1, $2, jsonb_build_object($3::text, $4::bigint))
ON CONFLICT (collection, key) DO UPDATE SET data = jsonb_set(documents.data, ARRAY[$3::text], to_jsonb(COALESCE((documents.data->>$3::text)::bigint, 0) + $4::bigint)), updated_at = now()`

func (p *PostgresStore) Increment(ctx context.Context, collection, key, field string, delta int64) error {
	_, err := p.db.ExecContext(ctx, incrementField, collection, key, field, delta)
	return err
}

// Update locks an existing row with SELECT ... FOR UPDATE. An absent row
// cannot be locked, so it is inserted with ON CONFLICT DO NOTHING and the
// whole read-modify-write re-runs if another transaction inserted first.
func (p *PostgresStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	var err error
	for i := 0; i < updateAttempts; i++ {
		err = p.update(ctx, collection, key, fn)
		if !errors.Is(err, errInsertRace) {
			return err
		}
	}
	return err
}

func (p *PostgresStore) update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		raw    []byte
		cur    Record
		exists = true
	)
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND key = $2 FOR UPDATE`,
		collection, key).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return err
	default:
		if cur, err = decodeRecord(raw); err != nil {
			return err
		}
	}

	next, err := fn(cur, exists)
	if err != nil {
		return err
	}
	b, err := encodeRecord(next)
	if err != nil {
		return err
	}
	if exists {
		if _, err := tx.ExecContext(ctx, upsertReplace, collection, key, string(b)); err != nil {
			return err
		}
		return tx.Commit()
	}
	res, err := tx.ExecContext(ctx, insertAbsent, collection, key, string(b))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errInsertRace
	}
	return tx.Commit()
}

type rowsIterator struct {
	rows *sql.Rows
}

func (r *rowsIterator) Next() (Doc, error) {
	if r.rows == nil {
		return Doc{}, Done
	}
	if !r.rows.Next() {
		err := r.rows.Err()
		r.Stop()
		if err != nil {
			return Doc{}, err
		}
		return Doc{}, Done
	}
	var (
		d   Doc
		raw []byte
	)
	if err := r.rows.Scan(&d.Collection, &d.Key, &raw); err != nil {
		return Doc{}, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return Doc{}, err
	}
	d.Data = rec
	return d, nil
}

func (r *rowsIterator) Stop() {
	if r.rows != nil {
		_ = r.rows.Close()
		r.rows = nil
	}
}
