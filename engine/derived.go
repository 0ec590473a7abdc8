// ABOUTME: Pure derived-field computations over in-memory engagement collections
// ABOUTME: Staleness, business-day counts, unread changes, note grouping, current phase, and last activity
package engine

import (
	"sort"
	"time"

	"github.com/harperreed/pursuit/models"
)

// DefaultStaleThresholdDays is the business-day inactivity that flags an engagement.
const DefaultStaleThresholdDays = 14

// BusinessDaysBetween counts weekdays d with from < d <= to, by calendar date
// in to's location. It is 0 when from is zero or not before to.
func BusinessDaysBetween(from, to time.Time) int {
	if from.IsZero() {
		return 0
	}
	loc := to.Location()
	start := dateOf(from.In(loc))
	end := dateOf(to)
	if !end.After(start) {
		return 0
	}

	days := int(end.Sub(start).Hours()/24 + 0.5)
	weeks := days / 7
	count := weeks * 5
	d := start.AddDate(0, 0, weeks*7)
	for d.Before(end) {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysSinceActivity is the business-day count from lastActivity to now.
func DaysSinceActivity(lastActivity, now time.Time) int {
	return BusinessDaysBetween(lastActivity, now)
}

// IsStale reports whether e needs attention. Archived and closed engagements
// are never stale.
func IsStale(e models.Engagement, now time.Time, thresholdDays int) bool {
	if e.IsArchived || e.EngagementStatus.IsClosed() {
		return false
	}
	if thresholdDays <= 0 {
		thresholdDays = DefaultStaleThresholdDays
	}
	return DaysSinceActivity(e.LastActivity, now) >= thresholdDays
}

// UnreadChanges counts logs by someone other than viewerID created after the
// viewer's last view. With no view every other author's log is unread.
func UnreadChanges(logs []models.ChangeLog, viewerID string, view *models.EngagementView) int {
	n := 0
	for _, l := range logs {
		if l.UserID == viewerID {
			continue
		}
		if view != nil && !l.CreatedAt.After(view.LastViewedAt) {
			continue
		}
		n++
	}
	return n
}

// GroupNotes buckets notes by phase, newest first, and returns the total.
func GroupNotes(notes []models.PhaseNote) (map[models.PhaseType][]models.PhaseNote, int) {
	grouped := make(map[models.PhaseType][]models.PhaseNote)
	for _, n := range notes {
		grouped[n.PhaseType] = append(grouped[n.PhaseType], n)
	}
	for _, list := range grouped {
		sortNotes(list)
	}
	return grouped, len(notes)
}

// DerivePhase returns the phase currently IN_PROGRESS, falling back to the
// stored value when no phase is in progress. With several in progress the
// most recently updated wins, then the later phase.
func DerivePhase(stored models.PhaseType, phases map[models.PhaseType]models.Phase) models.PhaseType {
	var best *models.Phase
	for _, t := range models.PhaseTypes {
		p, ok := phases[t]
		if !ok || p.Status != models.PhaseInProgress {
			continue
		}
		if best == nil || !p.UpdatedAt.Before(best.UpdatedAt) {
			p := p
			best = &p
		}
	}
	if best != nil {
		return best.PhaseType
	}
	if stored.IsValid() {
		return stored
	}
	return models.PhaseTypes[0]
}

// LatestActivity is the max activity date, or start when there are none.
func LatestActivity(start time.Time, activities []models.ActivityWithComments) time.Time {
	if len(activities) == 0 {
		return start
	}
	latest := activities[0].Date
	for _, a := range activities[1:] {
		if a.Date.After(latest) {
			latest = a.Date
		}
	}
	return latest
}

// OwnerIDs lists owner team-member ids, falling back to the legacy single
// owner when no ownership rows exist.
func OwnerIDs(owners []models.EngagementOwner, legacyOwnerID string) []string {
	if len(owners) == 0 {
		if legacyOwnerID == "" {
			return []string{}
		}
		return []string{legacyOwnerID}
	}
	ids := make([]string, 0, len(owners))
	seen := make(map[string]bool, len(owners))
	for _, o := range owners {
		if seen[o.TeamMemberID] {
			continue
		}
		seen[o.TeamMemberID] = true
		ids = append(ids, o.TeamMemberID)
	}
	return ids
}

func sortActivities(list []models.ActivityWithComments) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func sortComments(list []models.Comment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func sortNotes(list []models.PhaseNote) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func sortChangeLogs(list []models.ChangeLog) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
