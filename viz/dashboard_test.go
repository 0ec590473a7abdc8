package viz

import (
	"testing"
	"time"

	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vm(id, company string, phase models.PhaseType) *models.EngagementViewModel {
	return &models.EngagementViewModel{Engagement: models.Engagement{
		ID:               id,
		Company:          company,
		CurrentPhase:     phase,
		EngagementStatus: models.StatusActive,
	}}
}

func TestGenerateDashboardStats(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	a := vm("a", "Acme", models.PhaseDiscover)
	a.DealValue = 500000
	a.IsStale = true
	a.DaysSinceActivity = 20
	a.UnreadChanges = 2
	a.ChangeLogs = []models.ChangeLog{
		{Description: "new", CreatedAt: now.Add(-time.Hour)},
		{Description: "old", CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}

	b := vm("b", "Globex", models.PhaseDiscover)
	b.IsStale = true
	b.DaysSinceActivity = 40

	c := vm("c", "Initech", models.PhaseClose)
	c.EngagementStatus = models.StatusWon
	c.IsArchived = true

	stats := GenerateDashboardStats([]*models.EngagementViewModel{a, b, c}, now)
	assert.Equal(t, 3, stats.TotalEngagements)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Archived)
	assert.Equal(t, 2, stats.UnreadChanges)
	assert.Equal(t, PhaseStats{Phase: models.PhaseDiscover, Count: 2, Amount: 500000}, stats.PipelineByPhase[models.PhaseDiscover])
	assert.NotContains(t, stats.PipelineByPhase, models.PhaseClose)

	require.Len(t, stats.Stale, 2)
	assert.Equal(t, "Globex", stats.Stale[0].Company)
	require.Len(t, stats.RecentActivity, 1)
	assert.Equal(t, "new", stats.RecentActivity[0].Description)
}

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	a := vm("a", "Acme", models.PhaseQualify)
	a.IsStale = true
	a.DaysSinceActivity = 15

	out := RenderDashboard(GenerateDashboardStats([]*models.EngagementViewModel{a}, now))
	assert.Contains(t, out, "PURSUIT DASHBOARD")
	assert.Contains(t, out, "QUALIFY")
	assert.Contains(t, out, "NEEDS ATTENTION")
	assert.Contains(t, out, "Acme")
	for _, p := range models.PhaseTypes {
		assert.Contains(t, out, string(p))
	}
}
