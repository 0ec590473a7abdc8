package engine

import (
	"context"
	"testing"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentLifecycle(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	s := newSession(t, store, clock, "alice")
	ctx := context.Background()
	vm := createAcme(t, s)
	act, err := s.AddActivity(ctx, vm.ID, NewActivity{Type: models.ActivityMeeting, Date: jan5})
	require.NoError(t, err)

	_, err = s.AddComment(ctx, vm.ID, "missing", "hi")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AddComment(ctx, vm.ID, act.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	cm, err := s.AddComment(ctx, vm.ID, act.ID, "good call")
	require.NoError(t, err)
	assert.Equal(t, "alice", cm.AuthorID)

	edited, err := s.EditComment(ctx, vm.ID, act.ID, cm.ID, "great call")
	require.NoError(t, err)
	assert.Equal(t, "great call", edited.Content)

	got, _ := s.Get(vm.ID)
	require.Len(t, got.Activities[0].Comments, 1)
	assert.Equal(t, "great call", got.Activities[0].Comments[0].Content)
	assert.Equal(t, models.ChangeCommentEdited, got.ChangeLogs[0].ChangeType)

	require.NoError(t, s.DeleteComment(ctx, vm.ID, act.ID, cm.ID))
	got, _ = s.Get(vm.ID)
	assert.Empty(t, got.Activities[0].Comments)
	assert.Equal(t, models.ChangeCommentDeleted, got.ChangeLogs[0].ChangeType)
	assert.Equal(t, 0, countRecords(t, store, db.Comments, nil))
}

func TestNoteLifecycle(t *testing.T) {
	clock := newFakeClock()
	s := newSession(t, newTestStore(t, clock), clock, "alice")
	ctx := context.Background()
	vm := createAcme(t, s)

	_, err := s.AddNote(ctx, vm.ID, "LAUNCH", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	n1, err := s.AddNote(ctx, vm.ID, models.PhaseDiscover, "pain points")
	require.NoError(t, err)
	_, err = s.AddNote(ctx, vm.ID, models.PhaseClose, "legal review")
	require.NoError(t, err)

	got, _ := s.Get(vm.ID)
	assert.Equal(t, 2, got.TotalNotesCount)
	assert.Len(t, got.NotesByPhase[models.PhaseDiscover], 1)
	assert.Equal(t, models.ChangeNoteAdded, got.ChangeLogs[0].ChangeType)

	_, err = s.EditNote(ctx, vm.ID, n1.ID, "pain points, budget")
	require.NoError(t, err)
	got, _ = s.Get(vm.ID)
	assert.Equal(t, "pain points, budget", got.NotesByPhase[models.PhaseDiscover][0].Text)

	require.NoError(t, s.DeleteNote(ctx, vm.ID, n1.ID))
	got, _ = s.Get(vm.ID)
	assert.Equal(t, 1, got.TotalNotesCount)
	assert.Empty(t, got.NotesByPhase[models.PhaseDiscover])
	assert.Equal(t, models.ChangeNoteDeleted, got.ChangeLogs[0].ChangeType)

	assert.ErrorIs(t, s.DeleteNote(ctx, vm.ID, n1.ID), ErrNotFound)
}

func TestOwnerLifecycle(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)
	ctx := context.Background()
	_, err := store.Create(ctx, db.TeamMembers, db.Record{"id": "bob", "name": "Bob", "isActive": true})
	require.NoError(t, err)

	s := newSession(t, store, clock, "alice")
	require.NoError(t, s.Load(ctx))
	vm := createAcme(t, s)

	owner, err := s.AddOwner(ctx, vm.ID, "bob")
	require.NoError(t, err)
	got, _ := s.Get(vm.ID)
	assert.Equal(t, []string{"alice", "bob"}, got.OwnerIDs)
	assert.Equal(t, []string{"alice", "Bob"}, got.OwnerNames)
	assert.Equal(t, models.ChangeOwnerAdded, got.ChangeLogs[0].ChangeType)

	again, err := s.AddOwner(ctx, vm.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)
	assert.Equal(t, 2, countRecords(t, store, db.EngagementOwners, db.Filter{"engagementId": vm.ID}))

	require.NoError(t, s.RemoveOwner(ctx, vm.ID, owner.ID))
	got, _ = s.Get(vm.ID)
	assert.Equal(t, []string{"alice"}, got.OwnerIDs)
	assert.Equal(t, models.ChangeOwnerRemoved, got.ChangeLogs[0].ChangeType)

	assert.ErrorIs(t, s.RemoveOwner(ctx, vm.ID, owner.ID), ErrNotFound)
}
