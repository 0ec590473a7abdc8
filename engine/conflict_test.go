package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStalePhaseWriteIsNeverSent(t *testing.T) {
	clock := newFakeClock()
	inner := newTestStore(t, clock)
	ctx := context.Background()

	a := newSession(t, inner, clock, "alice")
	vm := createAcme(t, a)

	counting := newCountingStore(inner)
	b := newSession(t, counting, clock, "bob")
	require.NoError(t, b.Load(ctx))

	_, err := a.SavePhase(ctx, vm.ID, models.PhaseQualify, PhaseUpdate{Status: models.PhaseInProgress})
	require.NoError(t, err)

	_, err = b.SavePhase(ctx, vm.ID, models.PhaseQualify, PhaseUpdate{Status: models.PhaseComplete})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.False(t, IsTransient(err))

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, db.Phases, ce.RecordType)
	assert.False(t, ce.WasDeleted)
	assert.NotNil(t, ce.Current)

	assert.Equal(t, 0, counting.Writes(db.Phases), "the stale write must not reach the store")
	require.Len(t, b.conflicts, 1)
	assert.Equal(t, db.Phases, b.conflicts[0].RecordType)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.Conflicts.WithLabelValues("Phase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.Mutations.WithLabelValues("save_phase", "conflict")))

	phases, err := listAs[models.Phase](ctx, inner, db.Phases, db.Filter{"engagementId": vm.ID, "phaseType": "QUALIFY"})
	require.NoError(t, err)
	require.Len(t, phases, 1)
	assert.Equal(t, models.PhaseInProgress, phases[0].Status)
	assert.Nil(t, phases[0].CompletedDate)
}

func TestRaceLostAtWriteTimeIsAConflict(t *testing.T) {
	clock := newFakeClock()
	inner := newTestStore(t, clock)
	ctx := context.Background()

	racing := &racingStore{ConditionalStore: inner}
	s := newSession(t, racing, clock, "bob")
	vm := createAcme(t, s)
	phaseID := vm.Phases[models.PhaseQualify].ID

	racing.beforeUpdateIf = func() {
		_, err := inner.Update(ctx, db.Phases, phaseID, db.Record{"notes": "from another session"})
		require.NoError(t, err)
	}

	_, err := s.SavePhase(ctx, vm.ID, models.PhaseQualify, PhaseUpdate{Status: models.PhaseComplete})
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	rec, err := inner.Get(ctx, db.Phases, phaseID)
	require.NoError(t, err)
	var p models.Phase
	require.NoError(t, db.Decode(rec, &p))
	assert.Equal(t, models.PhasePending, p.Status)
	assert.Equal(t, "from another session", p.Notes)
}

func TestEditingDeletedRecordReportsDeletion(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	ctx := context.Background()

	a := newSession(t, store, clock, "alice")
	vm := createAcme(t, a)
	act, err := a.AddActivity(ctx, vm.ID, NewActivity{Type: models.ActivityCall, Date: jan5})
	require.NoError(t, err)

	b := newSession(t, store, clock, "bob")
	require.NoError(t, b.Load(ctx))

	require.NoError(t, a.DeleteActivity(ctx, vm.ID, act.ID))

	desc := "rescheduled"
	_, err = b.EditActivity(ctx, vm.ID, act.ID, ActivityEdit{Description: &desc})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.ErrorIs(t, err, ErrNotFound)
	require.Len(t, b.conflicts, 1)
	assert.True(t, b.conflicts[0].WasDeleted)
}

func TestStaleEngagementEditLeavesStoreUnchanged(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	ctx := context.Background()

	a := newSession(t, store, clock, "alice")
	vm := createAcme(t, a)
	b := newSession(t, store, clock, "bob")
	require.NoError(t, b.Load(ctx))

	name := "Acme Holdings"
	_, err := a.UpdateDetails(ctx, vm.ID, EngagementDetails{Company: &name})
	require.NoError(t, err)

	_, err = b.Archive(ctx, vm.ID)
	assert.True(t, IsConflict(err))

	_, err = b.DeleteEngagement(ctx, vm.ID)
	assert.True(t, IsConflict(err))

	stored := storedEngagement(t, store, vm.ID)
	assert.False(t, stored.IsArchived)
	assert.Equal(t, "Acme Holdings", stored.Company)

	// After a refresh the same edit goes through
	_, err = b.Refresh(ctx, vm.ID)
	require.NoError(t, err)
	got, err := b.Archive(ctx, vm.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)
}

func TestConflictMessageIsPlainASCII(t *testing.T) {
	for i := 0; i < len(ConflictMessage); i++ {
		assert.Less(t, ConflictMessage[i], byte(0x80), "byte %d of %q", i, ConflictMessage)
	}
}
