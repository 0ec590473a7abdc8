// ABOUTME: Denormalized engagement view-model consumed by CLI, TUI, MCP, and web surfaces
// ABOUTME: Built by the enrichment pipeline and kept current by the mutation coordinator
package models

// ActivityWithComments is an activity plus its comments, oldest comment first.
type ActivityWithComments struct {
	Activity
	Comments []Comment `json:"comments"`
}

// EngagementViewModel is the UI-ready aggregate of an engagement and its children.
// CurrentPhase on the embedded Engagement holds the derived phase; StoredPhase
// is the value last read from the engagement record.
type EngagementViewModel struct {
	Engagement
	StoredPhase PhaseType `json:"-"`

	Phases            map[PhaseType]Phase       `json:"phases"`
	Activities        []ActivityWithComments    `json:"activities"`
	Owners            []EngagementOwner         `json:"owners"`
	OwnerIDs          []string                  `json:"ownerIds"`
	OwnerNames        []string                  `json:"ownerNames"`
	NotesByPhase      map[PhaseType][]PhaseNote `json:"notesByPhase"`
	TotalNotesCount   int                       `json:"totalNotesCount"`
	ChangeLogs        []ChangeLog               `json:"changeLogs"`
	UnreadChanges     int                       `json:"unreadChanges"`
	IsStale           bool                      `json:"isStale"`
	DaysSinceActivity int                       `json:"daysSinceActivity"`
	SalesRepName      string                    `json:"salesRepName,omitempty"`
	LastView          *EngagementView           `json:"lastView,omitempty"`
}

// PhaseList returns the phases in configured order.
func (vm *EngagementViewModel) PhaseList() []Phase {
	out := make([]Phase, 0, len(PhaseTypes))
	for _, t := range PhaseTypes {
		if p, ok := vm.Phases[t]; ok {
			out = append(out, p)
		}
	}
	return out
}

// FindActivity returns the index of the activity with id, or -1.
func (vm *EngagementViewModel) FindActivity(id string) int {
	for i := range vm.Activities {
		if vm.Activities[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep-enough copy for handing out of the cache: slices and maps
// are copied so callers cannot mutate cached state.
func (vm *EngagementViewModel) Clone() *EngagementViewModel {
	if vm == nil {
		return nil
	}
	out := *vm
	out.Competitors = append([]string(nil), vm.Competitors...)
	out.Phases = make(map[PhaseType]Phase, len(vm.Phases))
	for k, v := range vm.Phases {
		v.Links = append([]PhaseLink(nil), v.Links...)
		out.Phases[k] = v
	}
	out.Activities = make([]ActivityWithComments, len(vm.Activities))
	for i, a := range vm.Activities {
		a.Comments = append([]Comment(nil), a.Comments...)
		out.Activities[i] = a
	}
	out.Owners = append([]EngagementOwner(nil), vm.Owners...)
	out.OwnerIDs = append([]string(nil), vm.OwnerIDs...)
	out.OwnerNames = append([]string(nil), vm.OwnerNames...)
	out.NotesByPhase = make(map[PhaseType][]PhaseNote, len(vm.NotesByPhase))
	for k, v := range vm.NotesByPhase {
		out.NotesByPhase[k] = append([]PhaseNote(nil), v...)
	}
	out.ChangeLogs = append([]ChangeLog(nil), vm.ChangeLogs...)
	if vm.LastView != nil {
		v := *vm.LastView
		out.LastView = &v
	}
	return &out
}
