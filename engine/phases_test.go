package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePhaseCompletedDateLockstep(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, newTestStore(t, clock), clock, "alice")
	ctx := context.Background()
	vm := createAcme(t, s)

	vm, err := s.SavePhase(ctx, vm.ID, models.PhaseDiscover, PhaseUpdate{Status: models.PhaseComplete})
	require.NoError(t, err)
	p := vm.Phases[models.PhaseDiscover]
	require.NotNil(t, p.CompletedDate)
	assert.True(t, p.CompletedDate.Equal(clock.Now()))

	vm, err = s.SavePhase(ctx, vm.ID, models.PhaseDiscover, PhaseUpdate{Status: models.PhaseInProgress})
	require.NoError(t, err)
	assert.Nil(t, vm.Phases[models.PhaseDiscover].CompletedDate)
}

func TestSavePhaseInProgressUpdatesCurrentPhase(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	s := newSession(t, store, clock, "alice")
	ctx := context.Background()
	vm := createAcme(t, s)

	notes := "budget confirmed"
	links := []LinkInput{{Title: "Brief", URL: "https://example.com/brief"}}
	vm, err := s.SavePhase(ctx, vm.ID, models.PhaseQualify, PhaseUpdate{Status: models.PhaseInProgress, Notes: &notes, Links: &links})
	require.NoError(t, err)

	assert.Equal(t, models.PhaseQualify, vm.CurrentPhase)
	assert.Equal(t, models.PhaseQualify, storedEngagement(t, store, vm.ID).CurrentPhase)
	assert.Equal(t, "budget confirmed", vm.Phases[models.PhaseQualify].Notes)
	assert.Equal(t, []models.PhaseLink{{Title: "Brief", URL: "https://example.com/brief"}}, vm.Phases[models.PhaseQualify].Links)
	assert.Equal(t, models.ChangePhaseUpdate, vm.ChangeLogs[0].ChangeType)

	// The engagement's revision moved with the secondary write and the cache followed it
	vm, err = s.Archive(ctx, vm.ID)
	require.NoError(t, err)
	assert.True(t, vm.IsArchived)
}

func TestSavePhaseRejectsBadInput(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, newTestStore(t, clock), clock, "alice")
	ctx := context.Background()
	vm := createAcme(t, s)

	_, err := s.SavePhase(ctx, vm.ID, "LAUNCH", PhaseUpdate{Status: models.PhaseComplete})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.SavePhase(ctx, vm.ID, models.PhaseDesign, PhaseUpdate{Status: "DONE"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	links := []LinkInput{{Title: "Broken", URL: "not a url"}}
	_, err = s.SavePhase(ctx, vm.ID, models.PhaseDesign, PhaseUpdate{Status: models.PhasePending, Links: &links})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResavingInProgressPhaseRepairsStoredCurrentPhase(t *testing.T) {
	clock := newFakeClock()
	inner := newTestStore(t, clock)
	store := newFailingStore(inner)
	s := newSession(t, store, clock, "alice")
	ctx := context.Background()
	vm := createAcme(t, s)

	store.updateErr[db.Engagements] = errors.New("store unavailable")
	_, err := s.SavePhase(ctx, vm.ID, models.PhaseQualify, PhaseUpdate{Status: models.PhaseInProgress})
	require.NoError(t, err)
	delete(store.updateErr, db.Engagements)
	assert.Equal(t, models.PhaseDiscover, storedEngagement(t, inner, vm.ID).CurrentPhase)

	notes := "second pass"
	vm, err = s.SavePhase(ctx, vm.ID, models.PhaseQualify, PhaseUpdate{Status: models.PhaseInProgress, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseQualify, storedEngagement(t, inner, vm.ID).CurrentPhase)
	assert.Equal(t, models.PhaseQualify, vm.CurrentPhase)
	assert.Equal(t, models.PhaseQualify, vm.StoredPhase)
}
