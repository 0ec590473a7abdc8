package engine

import (
	"testing"
	"time"

	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestBusinessDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"same day", day(2024, 1, 8), day(2024, 1, 8), 0},
		{"friday to monday", day(2024, 1, 5), day(2024, 1, 8), 1},
		{"one week", day(2024, 1, 1), day(2024, 1, 8), 5},
		{"saturday to sunday", day(2024, 1, 6), day(2024, 1, 7), 0},
		{"three weeks and a day", day(2024, 1, 1), day(2024, 1, 23), 16},
		{"future", day(2024, 2, 1), day(2024, 1, 1), 0},
		{"zero from", time.Time{}, day(2024, 1, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BusinessDaysBetween(tt.from, tt.to))
		})
	}
}

func TestBusinessDaysIgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2024, 1, 8, 23, 59, 0, 0, time.UTC)
	to := time.Date(2024, 1, 9, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, BusinessDaysBetween(from, to))
}

func TestIsStale(t *testing.T) {
	now := day(2024, 3, 15)
	e := models.Engagement{EngagementStatus: models.StatusActive, LastActivity: day(2024, 2, 1)}
	assert.True(t, IsStale(e, now, 14))

	e.LastActivity = day(2024, 3, 1)
	assert.False(t, IsStale(e, now, 14), "ten business days is under the threshold")

	e.LastActivity = day(2024, 2, 26)
	assert.Equal(t, 14, BusinessDaysBetween(e.LastActivity, now))
	assert.True(t, IsStale(e, now, 14), "exactly the threshold is stale")

	e.LastActivity = day(2024, 2, 27)
	assert.Equal(t, 13, BusinessDaysBetween(e.LastActivity, now))
	assert.False(t, IsStale(e, now, 14), "one business day short")

	e.LastActivity = day(2023, 1, 1)
	e.IsArchived = true
	assert.False(t, IsStale(e, now, 14))

	e.IsArchived = false
	for _, s := range []models.EngagementStatus{models.StatusWon, models.StatusLost, models.StatusDisqualified, models.StatusNoDecision} {
		e.EngagementStatus = s
		assert.False(t, IsStale(e, now, 14), s)
	}
}

func TestUnreadChanges(t *testing.T) {
	base := day(2024, 1, 1)
	logs := []models.ChangeLog{
		{UserID: "alice", CreatedAt: base.Add(1 * time.Hour)},
		{UserID: "bob", CreatedAt: base.Add(2 * time.Hour)},
		{UserID: "alice", CreatedAt: base.Add(3 * time.Hour)},
	}

	assert.Equal(t, 2, UnreadChanges(logs, "bob", nil))
	assert.Equal(t, 1, UnreadChanges(logs, "alice", nil))

	view := &models.EngagementView{ViewerID: "bob", LastViewedAt: base.Add(1 * time.Hour)}
	assert.Equal(t, 1, UnreadChanges(logs, "bob", view), "a log at exactly the view time is read")
}

func TestDerivePhase(t *testing.T) {
	t0 := day(2024, 1, 1)
	phases := map[models.PhaseType]models.Phase{
		models.PhaseDiscover: {PhaseType: models.PhaseDiscover, Status: models.PhaseComplete, UpdatedAt: t0},
		models.PhaseQualify:  {PhaseType: models.PhaseQualify, Status: models.PhaseInProgress, UpdatedAt: t0},
	}
	assert.Equal(t, models.PhaseQualify, DerivePhase(models.PhaseDiscover, phases))

	phases[models.PhaseDesign] = models.Phase{PhaseType: models.PhaseDesign, Status: models.PhaseInProgress, UpdatedAt: t0.Add(-time.Hour)}
	assert.Equal(t, models.PhaseQualify, DerivePhase(models.PhaseDiscover, phases), "most recently updated wins")

	phases[models.PhaseDesign] = models.Phase{PhaseType: models.PhaseDesign, Status: models.PhaseInProgress, UpdatedAt: t0}
	assert.Equal(t, models.PhaseDesign, DerivePhase(models.PhaseDiscover, phases), "ties go to the later phase")

	none := map[models.PhaseType]models.Phase{}
	assert.Equal(t, models.PhasePropose, DerivePhase(models.PhasePropose, none))
	assert.Equal(t, models.PhaseDiscover, DerivePhase("", none))
}

func TestLatestActivity(t *testing.T) {
	start := day(2024, 1, 1)
	assert.Equal(t, start, LatestActivity(start, nil))

	acts := []models.ActivityWithComments{
		{Activity: models.Activity{Date: day(2024, 1, 5)}},
		{Activity: models.Activity{Date: day(2024, 1, 10)}},
		{Activity: models.Activity{Date: day(2024, 1, 7)}},
	}
	assert.Equal(t, day(2024, 1, 10), LatestActivity(start, acts))
}

func TestGroupNotes(t *testing.T) {
	t0 := day(2024, 1, 1)
	grouped, total := GroupNotes([]models.PhaseNote{
		{ID: "a", PhaseType: models.PhaseDiscover, CreatedAt: t0},
		{ID: "b", PhaseType: models.PhaseDiscover, CreatedAt: t0.Add(time.Hour)},
		{ID: "c", PhaseType: models.PhaseClose, CreatedAt: t0},
	})
	assert.Equal(t, 3, total)
	if assert.Len(t, grouped[models.PhaseDiscover], 2) {
		assert.Equal(t, "b", grouped[models.PhaseDiscover][0].ID)
	}
	assert.Len(t, grouped[models.PhaseClose], 1)
}

func TestOwnerIDs(t *testing.T) {
	assert.Equal(t, []string{}, OwnerIDs(nil, ""))
	assert.Equal(t, []string{"legacy"}, OwnerIDs(nil, "legacy"))
	assert.Equal(t, []string{"a", "b"}, OwnerIDs([]models.EngagementOwner{
		{TeamMemberID: "a"}, {TeamMemberID: "b"}, {TeamMemberID: "a"},
	}, "legacy"))
}
