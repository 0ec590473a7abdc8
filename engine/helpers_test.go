// ABOUTME: Shared fixtures for engine tests: fake clock, sqlite store, and fault-injecting store wrappers
// ABOUTME: Wrappers embed the real store and intercept only the calls a test cares about
package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	at time.Time
}

func newFakeClock() *fakeClock {
	// A Friday
	return &fakeClock{at: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func newTestStore(t *testing.T, clock *fakeClock) *db.SQLStore {
	t.Helper()
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return db.NewSQLStore(database, db.DialectSQLite, db.WithClock(clock.Now))
}

type session struct {
	*Coordinator
	metrics   *Metrics
	conflicts []ConflictEvent
}

func newSession(t *testing.T, store db.Store, clock *fakeClock, userID string) *session {
	t.Helper()
	s := &session{metrics: NewMetrics(prometheus.NewRegistry())}
	c, err := New(Options{
		Store:        store,
		Now:          clock.Now,
		UserID:       userID,
		ShareLinkTTL: time.Hour,
		Metrics:      s.metrics,
		OnConflict:   func(ev ConflictEvent) { s.conflicts = append(s.conflicts, ev) },
	})
	require.NoError(t, err)
	s.Coordinator = c
	return s
}

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5  = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	jan10 = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
)

func createAcme(t *testing.T, s *session) *models.EngagementViewModel {
	t.Helper()
	vm, err := s.CreateEngagement(context.Background(), NewEngagement{Company: "Acme", StartDate: jan1})
	require.NoError(t, err)
	return vm
}

func countRecords(t *testing.T, store db.Store, c db.Collection, filter db.Filter) int {
	t.Helper()
	records, err := store.List(context.Background(), c, filter)
	require.NoError(t, err)
	return len(records)
}

func storedEngagement(t *testing.T, store db.Store, id string) models.Engagement {
	t.Helper()
	rec, err := store.Get(context.Background(), db.Engagements, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	var e models.Engagement
	require.NoError(t, db.Decode(rec, &e))
	return e
}

// countingStore counts writes per collection.
type countingStore struct {
	db.ConditionalStore
	mu     sync.Mutex
	writes map[db.Collection]int
}

func newCountingStore(inner db.ConditionalStore) *countingStore {
	return &countingStore{ConditionalStore: inner, writes: map[db.Collection]int{}}
}

func (s *countingStore) count(c db.Collection) {
	s.mu.Lock()
	s.writes[c]++
	s.mu.Unlock()
}

func (s *countingStore) Writes(c db.Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[c]
}

func (s *countingStore) Update(ctx context.Context, c db.Collection, id string, fields db.Record) (db.Record, error) {
	s.count(c)
	return s.ConditionalStore.Update(ctx, c, id, fields)
}

func (s *countingStore) UpdateIf(ctx context.Context, c db.Collection, id string, expected time.Time, fields db.Record) (db.Record, error) {
	s.count(c)
	return s.ConditionalStore.UpdateIf(ctx, c, id, expected, fields)
}

func (s *countingStore) Delete(ctx context.Context, c db.Collection, id string) error {
	s.count(c)
	return s.ConditionalStore.Delete(ctx, c, id)
}

func (s *countingStore) DeleteIf(ctx context.Context, c db.Collection, id string, expected time.Time) error {
	s.count(c)
	return s.ConditionalStore.DeleteIf(ctx, c, id, expected)
}

// racingStore runs beforeUpdateIf once, between the guard's read and the
// conditional write.
type racingStore struct {
	db.ConditionalStore
	beforeUpdateIf func()
}

func (s *racingStore) UpdateIf(ctx context.Context, c db.Collection, id string, expected time.Time, fields db.Record) (db.Record, error) {
	if fn := s.beforeUpdateIf; fn != nil {
		s.beforeUpdateIf = nil
		fn()
	}
	return s.ConditionalStore.UpdateIf(ctx, c, id, expected, fields)
}

// failingStore injects errors into creates, unconditional updates, and
// deletes. onCreate runs before every create.
type failingStore struct {
	db.ConditionalStore
	createErr map[db.Collection]error
	updateErr map[db.Collection]error
	deleteErr func(c db.Collection, id string) error
	onCreate  func(c db.Collection)
}

func newFailingStore(inner db.ConditionalStore) *failingStore {
	return &failingStore{
		ConditionalStore: inner,
		createErr:        map[db.Collection]error{},
		updateErr:        map[db.Collection]error{},
	}
}

func (s *failingStore) Create(ctx context.Context, c db.Collection, fields db.Record) (db.Record, error) {
	if s.onCreate != nil {
		s.onCreate(c)
	}
	if err := s.createErr[c]; err != nil {
		return nil, err
	}
	return s.ConditionalStore.Create(ctx, c, fields)
}

func (s *failingStore) Update(ctx context.Context, c db.Collection, id string, fields db.Record) (db.Record, error) {
	if err := s.updateErr[c]; err != nil {
		return nil, err
	}
	return s.ConditionalStore.Update(ctx, c, id, fields)
}

func (s *failingStore) Delete(ctx context.Context, c db.Collection, id string) error {
	if s.deleteErr != nil {
		if err := s.deleteErr(c, id); err != nil {
			return err
		}
	}
	return s.ConditionalStore.Delete(ctx, c, id)
}

func (s *failingStore) DeleteIf(ctx context.Context, c db.Collection, id string, expected time.Time) error {
	if s.deleteErr != nil {
		if err := s.deleteErr(c, id); err != nil {
			return err
		}
	}
	return s.ConditionalStore.DeleteIf(ctx, c, id, expected)
}
