// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes the pipeline by derived phase and lists engagements that need attention
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/pursuit/models"
)

type DashboardStats struct {
	// Open engagements by derived phase
	PipelineByPhase map[models.PhaseType]PhaseStats

	TotalEngagements int
	Active           int
	Archived         int
	UnreadChanges    int

	// Change log entries from the last 7 days, newest first
	RecentActivity []ActivityItem

	// Needs attention, most idle first
	Stale []StaleEngagement
}

type PhaseStats struct {
	Phase  models.PhaseType
	Count  int
	Amount int64 // in cents
}

type ActivityItem struct {
	Date        time.Time
	Company     string
	Description string
}

type StaleEngagement struct {
	ID        string
	Company   string
	DaysSince int
}

const recentWindow = 7 * 24 * time.Hour

// GenerateDashboardStats aggregates already-enriched view-models.
func GenerateDashboardStats(engagements []*models.EngagementViewModel, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		PipelineByPhase:  make(map[models.PhaseType]PhaseStats),
		TotalEngagements: len(engagements),
	}

	for _, vm := range engagements {
		stats.UnreadChanges += vm.UnreadChanges
		for _, l := range vm.ChangeLogs {
			if now.Sub(l.CreatedAt) <= recentWindow {
				stats.RecentActivity = append(stats.RecentActivity, ActivityItem{
					Date:        l.CreatedAt,
					Company:     vm.Company,
					Description: l.Description,
				})
			}
		}

		if vm.IsArchived || vm.EngagementStatus.IsClosed() {
			stats.Archived++
			continue
		}
		stats.Active++

		ps := stats.PipelineByPhase[vm.CurrentPhase]
		ps.Phase = vm.CurrentPhase
		ps.Count++
		ps.Amount += vm.DealValue
		stats.PipelineByPhase[vm.CurrentPhase] = ps

		if vm.IsStale {
			stats.Stale = append(stats.Stale, StaleEngagement{
				ID:        vm.ID,
				Company:   vm.Company,
				DaysSince: vm.DaysSinceActivity,
			})
		}
	}

	sort.SliceStable(stats.RecentActivity, func(i, j int) bool {
		return stats.RecentActivity[i].Date.After(stats.RecentActivity[j].Date)
	})
	sort.SliceStable(stats.Stale, func(i, j int) bool {
		return stats.Stale[i].DaysSince > stats.Stale[j].DaysSince
	})
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  PURSUIT DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, stats.PipelineByPhase)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  💼 %d engagements  ▶ %d active  🗄 %d archived  ✉ %d unread\n\n",
		stats.TotalEngagements, stats.Active, stats.Archived, stats.UnreadChanges))

	if len(stats.Stale) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		for _, s := range stats.Stale {
			out.WriteString(fmt.Sprintf("  ⚠️  %-24s %d business days idle\n", s.Company, s.DaysSince))
		}
		out.WriteString("\n")
	}

	if len(stats.RecentActivity) > 0 {
		out.WriteString("RECENT ACTIVITY\n")
		for i, a := range stats.RecentActivity {
			if i == 10 {
				break
			}
			out.WriteString(fmt.Sprintf("  %s  %-16s %s\n", a.Date.Format("Jan 02"), a.Company, a.Description))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline map[models.PhaseType]PhaseStats) {
	maxCount := 0
	for _, ps := range pipeline {
		if ps.Count > maxCount {
			maxCount = ps.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, phase := range models.PhaseTypes {
		ps := pipeline[phase]

		// 0-10 blocks
		barLength := (ps.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-9s %s  %2d ($%dK)\n",
			phase, bar, ps.Count, ps.Amount/100000))
	}
}
