// ABOUTME: Tests for engagement data models
// ABOUTME: Validates enum helpers, phase ordering, share-link usability, and view-model cloning
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseTypesOrder(t *testing.T) {
	require.Len(t, PhaseTypes, 5)
	assert.Equal(t, PhaseDiscover, PhaseTypes[0])
	assert.Equal(t, 0, PhaseDiscover.Index())
	assert.Equal(t, 4, PhaseClose.Index())
	assert.Equal(t, -1, PhaseType("NEGOTIATE").Index())
	assert.False(t, PhaseType("").IsValid())
}

func TestEngagementStatusClosed(t *testing.T) {
	closed := []EngagementStatus{StatusWon, StatusLost, StatusDisqualified, StatusNoDecision}
	for _, s := range closed {
		assert.True(t, s.IsClosed(), "%s should be closed", s)
		assert.True(t, s.IsValid())
	}

	open := []EngagementStatus{StatusActive, StatusOnHold, StatusUnresponsive}
	for _, s := range open {
		assert.False(t, s.IsClosed(), "%s should be open", s)
		assert.True(t, s.IsValid())
	}

	assert.False(t, EngagementStatus("PAUSED").IsValid())
}

func TestPhaseStatusValid(t *testing.T) {
	assert.True(t, PhaseBlocked.IsValid())
	assert.False(t, PhaseStatus("DONE").IsValid())
}

func TestShareLinkUsable(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	link := &ShareLink{IsActive: true, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, link.Usable(now))

	link.IsActive = false
	assert.False(t, link.Usable(now))

	link.IsActive = true
	assert.False(t, link.Usable(now.Add(2*time.Hour)))
}

func TestViewModelCloneIsIndependent(t *testing.T) {
	vm := &EngagementViewModel{
		Engagement: Engagement{ID: "e1", Competitors: []string{"ACME"}},
		Phases: map[PhaseType]Phase{
			PhaseDiscover: {ID: "p1", PhaseType: PhaseDiscover, Links: []PhaseLink{{Title: "doc", URL: "https://x"}}},
		},
		Activities: []ActivityWithComments{{Activity: Activity{ID: "a1"}, Comments: []Comment{{ID: "c1"}}}},
		OwnerIDs:   []string{"u1"},
		NotesByPhase: map[PhaseType][]PhaseNote{
			PhaseDiscover: {{ID: "n1"}},
		},
		ChangeLogs: []ChangeLog{{ID: "l1"}},
	}

	clone := vm.Clone()
	clone.Competitors[0] = "OTHER"
	clone.Activities[0].Comments[0].ID = "changed"
	clone.OwnerIDs = append(clone.OwnerIDs, "u2")
	clone.NotesByPhase[PhaseDiscover][0].ID = "changed"
	p := clone.Phases[PhaseDiscover]
	p.Links[0].Title = "changed"

	assert.Equal(t, "ACME", vm.Competitors[0])
	assert.Equal(t, "c1", vm.Activities[0].Comments[0].ID)
	assert.Len(t, vm.OwnerIDs, 1)
	assert.Equal(t, "n1", vm.NotesByPhase[PhaseDiscover][0].ID)
	assert.Equal(t, "doc", vm.Phases[PhaseDiscover].Links[0].Title)
}

func TestViewModelPhaseListAndFind(t *testing.T) {
	vm := &EngagementViewModel{
		Phases: map[PhaseType]Phase{
			PhaseClose:    {PhaseType: PhaseClose},
			PhaseDiscover: {PhaseType: PhaseDiscover},
		},
		Activities: []ActivityWithComments{{Activity: Activity{ID: "a1"}}, {Activity: Activity{ID: "a2"}}},
	}

	list := vm.PhaseList()
	require.Len(t, list, 2)
	assert.Equal(t, PhaseDiscover, list[0].PhaseType)
	assert.Equal(t, PhaseClose, list[1].PhaseType)

	assert.Equal(t, 1, vm.FindActivity("a2"))
	assert.Equal(t, -1, vm.FindActivity("missing"))
}
