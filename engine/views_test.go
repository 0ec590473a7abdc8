package engine

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreadChangesResetOnView(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	ctx := context.Background()

	alice := newSession(t, store, clock, "alice")
	vm := createAcme(t, alice)

	bob := newSession(t, store, clock, "bob")
	require.NoError(t, bob.Load(ctx))
	got, _ := bob.Get(vm.ID)
	assert.Equal(t, 1, got.UnreadChanges, "alice's CREATED entry")

	require.NoError(t, bob.RecordView(ctx, vm.ID, ""))
	got, _ = bob.Get(vm.ID)
	assert.Equal(t, 0, got.UnreadChanges)
	require.NotNil(t, got.LastView)
	assert.True(t, got.LastView.LastViewedAt.Equal(clock.Now()))

	clock.Advance(time.Hour)
	_, err := alice.AddActivity(ctx, vm.ID, NewActivity{Type: models.ActivityCall, Date: jan5})
	require.NoError(t, err)
	_, err = bob.AddActivity(ctx, vm.ID, NewActivity{Type: models.ActivityNote, Date: jan5})
	require.NoError(t, err)

	got, err = bob.Refresh(ctx, vm.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadChanges, "bob's own entry does not count")

	clock.Advance(time.Minute)
	require.NoError(t, bob.RecordView(ctx, vm.ID, "bob"))
	got, _ = bob.Get(vm.ID)
	assert.Equal(t, 0, got.UnreadChanges)

	assert.Equal(t, 1, countRecords(t, store, db.EngagementViews, db.Filter{"viewerId": "bob"}), "views are upserted")
}

func TestRecordViewForAnotherViewerLeavesSessionCacheAlone(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	ctx := context.Background()

	alice := newSession(t, store, clock, "alice")
	vm := createAcme(t, alice)
	bob := newSession(t, store, clock, "bob")
	require.NoError(t, bob.Load(ctx))

	require.NoError(t, bob.RecordView(ctx, vm.ID, "carol"))
	got, _ := bob.Get(vm.ID)
	assert.Equal(t, 1, got.UnreadChanges)
	assert.Nil(t, got.LastView)
	assert.Equal(t, 1, countRecords(t, store, db.EngagementViews, db.Filter{"viewerId": "carol"}))
}

func TestRecordViewUnknownEngagement(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, newTestStore(t, clock), clock, "alice")
	err := s.RecordView(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
