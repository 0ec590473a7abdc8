package engine

import (
	"context"
	"testing"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairFinishesHalfCreatedEngagement(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	ctx := context.Background()

	fields, err := db.Encode(models.Engagement{
		Company:          "Half",
		StartDate:        jan1,
		LastActivity:     jan10,
		EngagementStatus: models.StatusActive,
		CreatedBy:        "alice",
	})
	require.NoError(t, err)
	rec, err := store.Create(ctx, db.Engagements, fields)
	require.NoError(t, err)

	s := newSession(t, store, clock, "alice")
	res, err := s.Repair(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, 5, res.PhasesCreated)
	assert.True(t, res.OwnerCreated)
	assert.True(t, res.LastActivityFixed)
	assert.True(t, res.CurrentPhaseFixed)

	e := storedEngagement(t, store, rec.ID())
	assert.True(t, e.LastActivity.Equal(jan1))
	assert.Equal(t, models.PhaseDiscover, e.CurrentPhase)

	vm, ok := s.Get(rec.ID())
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, vm.OwnerIDs)

	results, err := s.RepairAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Changed())
}

func TestRepairMissingEngagement(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, newTestStore(t, clock), clock, "alice")
	_, err := s.Repair(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}
