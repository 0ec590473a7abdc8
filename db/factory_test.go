package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cases := map[string]string{
		"sqlite": "sqlite://" + filepath.Join(dir, "a.db"),
		"bare":   filepath.Join(dir, "b.db"),
		"memory": "memory://",
		"badger": "badger://" + filepath.Join(dir, "kv"),
	}
	for name, dsn := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Open(ctx, dsn, Options{})
			require.NoError(t, err)
			defer s.Close()

			_, ok := s.(ConditionalStore)
			assert.True(t, ok)

			r, err := s.Create(ctx, SalesReps, Record{"name": "Pat"})
			require.NoError(t, err)
			got, err := s.Get(ctx, SalesReps, r.ID())
			require.NoError(t, err)
			assert.Equal(t, "Pat", got["name"])
		})
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "mongodb://localhost", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestSplitDSN(t *testing.T) {
	scheme, rest := splitDSN("Postgres://u@h/db")
	assert.Equal(t, "postgres", scheme)
	assert.Equal(t, "u@h/db", rest)

	scheme, rest = splitDSN("/tmp/x.db")
	assert.Equal(t, "", scheme)
	assert.Equal(t, "/tmp/x.db", rest)
}

func TestRebindPostgres(t *testing.T) {
	s := &SQLStore{dialect: DialectPostgres}
	assert.Equal(t, "a = $1 AND b = $2", s.rebind("a = ? AND b = ?"))
	s.dialect = DialectSQLite
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}
