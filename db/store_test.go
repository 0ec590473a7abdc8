// ABOUTME: Contract tests run against every document-store backend
// ABOUTME: Checks CRUD, filters, ordering, revision monotonicity, and conditional writes
package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/pursuit/charm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns the same instant every call, forcing nextRevision to bump.
func fixedClock() func() time.Time {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

// steppingClock advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		at = at.Add(time.Second)
		return at
	}
}

type storeFactory func(t *testing.T, now func() time.Time) ConditionalStore

func backends() map[string]storeFactory {
	b := map[string]storeFactory{
		"sqlite": func(t *testing.T, now func() time.Time) ConditionalStore {
			database, err := OpenDatabase(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = database.Close() })
			return NewSQLStore(database, DialectSQLite, WithClock(now))
		},
		"kv": func(t *testing.T, now func() time.Time) ConditionalStore {
			return NewKVStore(charm.NewTestClient(t), now)
		},
	}
	if dsn := os.Getenv("PURSUIT_TEST_POSTGRES_DSN"); dsn != "" {
		b["postgres"] = func(t *testing.T, now func() time.Time) ConditionalStore {
			database, err := OpenPostgres(context.Background(), dsn)
			require.NoError(t, err)
			_, err = database.Exec(`DELETE FROM documents`)
			require.NoError(t, err)
			t.Cleanup(func() { _ = database.Close() })
			return NewSQLStore(database, DialectPostgres, WithClock(now))
		}
	}
	return b
}

func forEachBackend(t *testing.T, now func() func() time.Time, fn func(t *testing.T, s ConditionalStore)) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t, now()))
		})
	}
}

func TestStoreCreateGet(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		ctx := context.Background()

		r, err := s.Create(ctx, Engagements, Record{"company": "Acme", "dealValue": 5000})
		require.NoError(t, err)
		require.NotEmpty(t, r.ID())

		rev, err := r.Revision()
		require.NoError(t, err)
		assert.Equal(t, rev, r.CreatedAt())

		got, err := s.Get(ctx, Engagements, r.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Acme", got["company"])
		assert.Equal(t, r[FieldUpdatedAt], got[FieldUpdatedAt])
	})
}

func TestStoreCreateKeepsSuppliedID(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		r, err := s.Create(context.Background(), TeamMembers, Record{"id": "system", "name": "System"})
		require.NoError(t, err)
		assert.Equal(t, "system", r.ID())
	})
}

func TestStoreGetMissingReturnsNil(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		got, err := s.Get(context.Background(), Phases, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStoreListFiltersAndOrders(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		ctx := context.Background()
		for _, p := range []string{"DISCOVER", "QUALIFY", "DESIGN"} {
			_, err := s.Create(ctx, Phases, Record{"engagementId": "e1", "phaseType": p})
			require.NoError(t, err)
		}
		_, err := s.Create(ctx, Phases, Record{"engagementId": "e2", "phaseType": "DISCOVER"})
		require.NoError(t, err)

		got, err := s.List(ctx, Phases, Filter{"engagementId": "e1"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "DISCOVER", got[0]["phaseType"])
		assert.Equal(t, "DESIGN", got[2]["phaseType"])

		all, err := s.List(ctx, Phases, nil)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		none, err := s.List(ctx, Activities, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStoreUpdateMergesAndBumpsRevision(t *testing.T) {
	forEachBackend(t, fixedClock, func(t *testing.T, s ConditionalStore) {
		ctx := context.Background()
		r, err := s.Create(ctx, Engagements, Record{"company": "Acme", "industry": "Retail"})
		require.NoError(t, err)
		before, _ := r.Revision()

		updated, err := s.Update(ctx, Engagements, r.ID(), Record{"industry": "Finance", "id": "hijack"})
		require.NoError(t, err)
		after, err := updated.Revision()
		require.NoError(t, err)

		assert.True(t, after.After(before), "revision must increase even with a frozen clock")
		assert.Equal(t, r.ID(), updated.ID())
		assert.Equal(t, "Acme", updated["company"])
		assert.Equal(t, "Finance", updated["industry"])
	})
}

func TestStoreUpdateMissing(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		_, err := s.Update(context.Background(), Engagements, "gone", Record{"company": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreDelete(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		ctx := context.Background()
		r, err := s.Create(ctx, Comments, Record{"content": "hi"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, Comments, r.ID()))
		got, err := s.Get(ctx, Comments, r.ID())
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, s.Delete(ctx, Comments, r.ID()), ErrNotFound)
	})
}

func TestStoreUpdateIf(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		ctx := context.Background()
		r, err := s.Create(ctx, Phases, Record{"status": "PENDING"})
		require.NoError(t, err)
		rev, _ := r.Revision()

		first, err := s.UpdateIf(ctx, Phases, r.ID(), rev, Record{"status": "IN_PROGRESS"})
		require.NoError(t, err)

		// A second writer still holding the original revision loses.
		_, err = s.UpdateIf(ctx, Phases, r.ID(), rev, Record{"status": "BLOCKED"})
		assert.ErrorIs(t, err, ErrRevisionMismatch)

		got, err := s.Get(ctx, Phases, r.ID())
		require.NoError(t, err)
		assert.Equal(t, "IN_PROGRESS", got["status"])
		assert.Equal(t, first[FieldUpdatedAt], got[FieldUpdatedAt])

		_, err = s.UpdateIf(ctx, Phases, "missing", rev, Record{"status": "BLOCKED"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreDeleteIf(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		ctx := context.Background()
		r, err := s.Create(ctx, Activities, Record{"type": "CALL"})
		require.NoError(t, err)
		rev, _ := r.Revision()

		_, err = s.Update(ctx, Activities, r.ID(), Record{"type": "EMAIL"})
		require.NoError(t, err)

		assert.ErrorIs(t, s.DeleteIf(ctx, Activities, r.ID(), rev), ErrRevisionMismatch)

		cur, err := s.Get(ctx, Activities, r.ID())
		require.NoError(t, err)
		curRev, _ := cur.Revision()
		require.NoError(t, s.DeleteIf(ctx, Activities, r.ID(), curRev))

		assert.ErrorIs(t, s.DeleteIf(ctx, Activities, r.ID(), curRev), ErrNotFound)
	})
}

func TestStoreConcurrentUpdatesAllLand(t *testing.T) {
	forEachBackend(t, steppingClock, func(t *testing.T, s ConditionalStore) {
		ctx := context.Background()
		r, err := s.Create(ctx, Engagements, Record{"company": "Acme"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		keys := []string{"a", "b", "c", "d"}
		for _, k := range keys {
			wg.Add(1)
			go func(k string) {
				defer wg.Done()
				_, err := s.Update(ctx, Engagements, r.ID(), Record{k: true})
				assert.NoError(t, err)
			}(k)
		}
		wg.Wait()

		got, err := s.Get(ctx, Engagements, r.ID())
		require.NoError(t, err)
		for _, k := range keys {
			assert.Equal(t, true, got[k], "field %s lost", k)
		}
	})
}
