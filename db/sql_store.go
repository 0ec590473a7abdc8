// ABOUTME: SQL-backed document store over the documents table
// ABOUTME: Supports SQLite and Postgres with revision-conditional updates and deletes
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

const maxUpdateAttempts = 8

// SQLStore stores each record as a JSON document row keyed by (collection, id).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// SQLOption configures a SQLStore.
type SQLOption func(*SQLStore)

// WithClock overrides the time source used for revision stamps.
func WithClock(now func() time.Time) SQLOption {
	return func(s *SQLStore) { s.now = now }
}

// NewSQLStore wraps an initialized database handle.
func NewSQLStore(db *sql.DB, dialect Dialect, opts ...SQLOption) *SQLStore {
	s := &SQLStore{db: db, dialect: dialect, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle for maintenance commands.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// load returns the record and its stored revision string, or nil when absent.
func (s *SQLStore) load(ctx context.Context, c Collection, id string) (Record, string, error) {
	query := s.rebind(`SELECT data, updated_at FROM documents WHERE collection = ? AND id = ?`)

	var data, rev string
	err := s.db.QueryRowContext(ctx, query, string(c), id).Scan(&data, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	r, err := unmarshalRecord([]byte(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s/%s: %w", c, id, err)
	}
	return r, rev, nil
}

func (s *SQLStore) Get(ctx context.Context, c Collection, id string) (Record, error) {
	r, _, err := s.load(ctx, c, id)
	return r, err
}

func (s *SQLStore) List(ctx context.Context, c Collection, filter Filter) ([]Record, error) {
	query := s.rebind(`SELECT data FROM documents WHERE collection = ? ORDER BY created_at, id`)

	rows, err := s.db.QueryContext(ctx, query, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := unmarshalRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

func (s *SQLStore) Create(ctx context.Context, c Collection, fields Record) (Record, error) {
	r := mergeFields(nil, fields)
	id, _ := fields[FieldID].(string)
	if id == "" {
		id = uuid.New().String()
	}
	stamp := FormatRevision(s.now())
	r[FieldID] = id
	r[FieldCreatedAt] = stamp
	r[FieldUpdatedAt] = stamp

	data, err := marshalRecord(r)
	if err != nil {
		return nil, err
	}

	query := s.rebind(`
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if _, err := s.db.ExecContext(ctx, query, string(c), id, string(data), stamp, stamp); err != nil {
		return nil, fmt.Errorf("create %s/%s: %w", c, id, err)
	}
	return r, nil
}

func (s *SQLStore) Update(ctx context.Context, c Collection, id string, fields Record) (Record, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		cur, rev, err := s.load(ctx, c, id)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, ErrNotFound
		}
		r, ok, err := s.swap(ctx, c, id, cur, rev, fields)
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
	}
	return nil, fmt.Errorf("update %s/%s: too much contention", c, id)
}

// UpdateIf applies fields only while the stored revision equals expected.
func (s *SQLStore) UpdateIf(ctx context.Context, c Collection, id string, expected time.Time, fields Record) (Record, error) {
	cur, rev, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if rev != FormatRevision(expected) {
		return nil, ErrRevisionMismatch
	}

	r, ok, err := s.swap(ctx, c, id, cur, rev, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.missOrMismatch(ctx, c, id)
	}
	return r, nil
}

// swap writes cur+fields if the row still carries rev. ok is false when
// another writer got there first.
func (s *SQLStore) swap(ctx context.Context, c Collection, id string, cur Record, rev string, fields Record) (Record, bool, error) {
	prev, err := time.Parse(time.RFC3339Nano, rev)
	if err != nil {
		return nil, false, fmt.Errorf("%s/%s: %w", c, id, ErrInvalidRecord)
	}
	stamp := FormatRevision(nextRevision(prev, s.now()))

	r := mergeFields(cur, fields)
	r[FieldUpdatedAt] = stamp
	data, err := marshalRecord(r)
	if err != nil {
		return nil, false, err
	}

	query := s.rebind(`
		UPDATE documents SET data = ?, updated_at = ?
		WHERE collection = ? AND id = ? AND updated_at = ?
	`)
	result, err := s.db.ExecContext(ctx, query, string(data), stamp, string(c), id, rev)
	if err != nil {
		return nil, false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	return r, rows == 1, nil
}

func (s *SQLStore) Delete(ctx context.Context, c Collection, id string) error {
	query := s.rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	result, err := s.db.ExecContext(ctx, query, string(c), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIf removes the record only while its revision equals expected.
func (s *SQLStore) DeleteIf(ctx context.Context, c Collection, id string, expected time.Time) error {
	query := s.rebind(`DELETE FROM documents WHERE collection = ? AND id = ? AND updated_at = ?`)
	result, err := s.db.ExecContext(ctx, query, string(c), id, FormatRevision(expected))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.missOrMismatch(ctx, c, id)
	}
	return nil
}

func (s *SQLStore) missOrMismatch(ctx context.Context, c Collection, id string) error {
	cur, _, err := s.load(ctx, c, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrNotFound
	}
	return ErrRevisionMismatch
}

var _ ConditionalStore = (*SQLStore)(nil)
