// ABOUTME: Enrichment pipeline assembling engagement view-models from grouped child collections
// ABOUTME: Shared by bulk load and single-engagement refresh
package engine

import (
	"time"

	"github.com/harperreed/pursuit/models"
)

// Context bundles child collections grouped by foreign key plus lookups.
type Context struct {
	Phases     map[string][]models.Phase           // by engagement
	Activities map[string][]models.Activity        // by engagement
	Comments   map[string][]models.Comment         // by activity
	Notes      map[string][]models.PhaseNote       // by engagement
	ChangeLogs map[string][]models.ChangeLog       // by engagement
	Owners     map[string][]models.EngagementOwner // by engagement
	Views      map[string]models.EngagementView    // by engagement, for ViewerID

	SalesReps   map[string]models.SalesRep
	TeamMembers map[string]models.TeamMember // includes system placeholders

	ViewerID           string
	Now                time.Time
	StaleThresholdDays int
}

// Collections is the flat input to NewContext.
type Collections struct {
	Phases      []models.Phase
	Activities  []models.Activity
	Comments    []models.Comment
	Notes       []models.PhaseNote
	ChangeLogs  []models.ChangeLog
	Owners      []models.EngagementOwner
	Views       []models.EngagementView
	SalesReps   []models.SalesRep
	TeamMembers []models.TeamMember
}

// NewContext groups flat collections by their foreign keys. Only views
// belonging to viewerID are kept.
func NewContext(in Collections, viewerID string, now time.Time, thresholdDays int) *Context {
	ctx := &Context{
		Phases:             make(map[string][]models.Phase),
		Activities:         make(map[string][]models.Activity),
		Comments:           make(map[string][]models.Comment),
		Notes:              make(map[string][]models.PhaseNote),
		ChangeLogs:         make(map[string][]models.ChangeLog),
		Owners:             make(map[string][]models.EngagementOwner),
		Views:              make(map[string]models.EngagementView),
		SalesReps:          make(map[string]models.SalesRep, len(in.SalesReps)),
		TeamMembers:        make(map[string]models.TeamMember, len(in.TeamMembers)),
		ViewerID:           viewerID,
		Now:                now,
		StaleThresholdDays: thresholdDays,
	}
	for _, p := range in.Phases {
		ctx.Phases[p.EngagementID] = append(ctx.Phases[p.EngagementID], p)
	}
	for _, a := range in.Activities {
		ctx.Activities[a.EngagementID] = append(ctx.Activities[a.EngagementID], a)
	}
	for _, c := range in.Comments {
		ctx.Comments[c.ActivityID] = append(ctx.Comments[c.ActivityID], c)
	}
	for _, n := range in.Notes {
		ctx.Notes[n.EngagementID] = append(ctx.Notes[n.EngagementID], n)
	}
	for _, l := range in.ChangeLogs {
		ctx.ChangeLogs[l.EngagementID] = append(ctx.ChangeLogs[l.EngagementID], l)
	}
	for _, o := range in.Owners {
		ctx.Owners[o.EngagementID] = append(ctx.Owners[o.EngagementID], o)
	}
	for _, v := range in.Views {
		if v.ViewerID != viewerID {
			continue
		}
		// Keep the latest if duplicates slipped in
		if prev, ok := ctx.Views[v.EngagementID]; !ok || v.LastViewedAt.After(prev.LastViewedAt) {
			ctx.Views[v.EngagementID] = v
		}
	}
	for _, r := range in.SalesReps {
		ctx.SalesReps[r.ID] = r
	}
	for _, m := range in.TeamMembers {
		ctx.TeamMembers[m.ID] = m
	}
	return ctx
}

// Enrich builds the view-model for e from ctx.
func Enrich(e models.Engagement, ctx *Context) *models.EngagementViewModel {
	vm := &models.EngagementViewModel{
		Engagement: e,
		Phases:     phaseMap(e.ID, ctx.Phases[e.ID]),
	}

	acts := ctx.Activities[e.ID]
	vm.Activities = make([]models.ActivityWithComments, 0, len(acts))
	for _, a := range acts {
		comments := append([]models.Comment{}, ctx.Comments[a.ID]...)
		sortComments(comments)
		vm.Activities = append(vm.Activities, models.ActivityWithComments{Activity: a, Comments: comments})
	}
	sortActivities(vm.Activities)

	vm.Owners = append([]models.EngagementOwner{}, ctx.Owners[e.ID]...)
	vm.NotesByPhase, vm.TotalNotesCount = GroupNotes(ctx.Notes[e.ID])

	vm.ChangeLogs = append([]models.ChangeLog{}, ctx.ChangeLogs[e.ID]...)
	sortChangeLogs(vm.ChangeLogs)

	if v, ok := ctx.Views[e.ID]; ok {
		vm.LastView = &v
	}

	if rep, ok := ctx.SalesReps[e.SalesRepID]; ok {
		vm.SalesRepName = rep.Name
	}

	recomputeOwners(vm, ctx.TeamMembers)
	vm.StoredPhase = e.CurrentPhase
	vm.CurrentPhase = DerivePhase(e.CurrentPhase, vm.Phases)
	vm.UnreadChanges = UnreadChanges(vm.ChangeLogs, ctx.ViewerID, vm.LastView)
	recomputeActivity(vm, ctx.Now, ctx.StaleThresholdDays)
	return vm
}

// phaseMap keys phases by type and synthesizes PENDING placeholders (empty ID)
// for any configured type with no stored row. Duplicate rows keep the oldest.
func phaseMap(engagementID string, phases []models.Phase) map[models.PhaseType]models.Phase {
	out := make(map[models.PhaseType]models.Phase, len(models.PhaseTypes))
	for _, p := range phases {
		if !p.PhaseType.IsValid() {
			continue
		}
		if prev, ok := out[p.PhaseType]; ok && !p.CreatedAt.Before(prev.CreatedAt) {
			continue
		}
		out[p.PhaseType] = p
	}
	for _, t := range models.PhaseTypes {
		if _, ok := out[t]; !ok {
			out[t] = models.Phase{EngagementID: engagementID, PhaseType: t, Status: models.PhasePending}
		}
	}
	return out
}

// recomputeActivity re-derives lastActivity and the fields that depend on it.
func recomputeActivity(vm *models.EngagementViewModel, now time.Time, thresholdDays int) {
	vm.LastActivity = LatestActivity(vm.StartDate, vm.Activities)
	recomputeStaleness(vm, now, thresholdDays)
}

func recomputeStaleness(vm *models.EngagementViewModel, now time.Time, thresholdDays int) {
	vm.IsStale = IsStale(vm.Engagement, now, thresholdDays)
	vm.DaysSinceActivity = DaysSinceActivity(vm.LastActivity, now)
}

func recomputeOwners(vm *models.EngagementViewModel, members map[string]models.TeamMember) {
	vm.OwnerIDs = OwnerIDs(vm.Owners, vm.OwnerID)
	vm.OwnerNames = make([]string, len(vm.OwnerIDs))
	for i, id := range vm.OwnerIDs {
		if m, ok := members[id]; ok && m.Name != "" {
			vm.OwnerNames[i] = m.Name
		} else {
			vm.OwnerNames[i] = id
		}
	}
}

func recomputeNotes(vm *models.EngagementViewModel) {
	var all []models.PhaseNote
	for _, list := range vm.NotesByPhase {
		all = append(all, list...)
	}
	vm.NotesByPhase, vm.TotalNotesCount = GroupNotes(all)
}
