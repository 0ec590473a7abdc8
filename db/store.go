// ABOUTME: Document-store client contract shared by every backend
// ABOUTME: Defines collections, records, equality filters, and the optional conditional-write capability
package db

import (
	"context"
	"errors"
	"sort"
	"time"

	json "github.com/goccy/go-json"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrRevisionMismatch   = errors.New("revision mismatch")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrUnsupportedBackend = errors.New("unsupported store backend")
)

// Collection names a group of records.
type Collection string

const (
	Engagements      Collection = "Engagement"
	Phases           Collection = "Phase"
	Activities       Collection = "Activity"
	Comments         Collection = "Comment"
	PhaseNotes       Collection = "PhaseNote"
	ChangeLogs       Collection = "ChangeLog"
	EngagementOwners Collection = "EngagementOwner"
	EngagementViews  Collection = "EngagementView"
	ShareLinks       Collection = "ShareLink"
	SalesReps        Collection = "SalesRep"
	TeamMembers      Collection = "TeamMember"
	AuditLog         Collection = "AuditLog"
)

// Collections lists every known collection.
var Collections = []Collection{
	Engagements, Phases, Activities, Comments, PhaseNotes, ChangeLogs,
	EngagementOwners, EngagementViews, ShareLinks, SalesReps, TeamMembers, AuditLog,
}

// Reserved record keys. The store owns their values.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// RevisionLayout is fixed-width so revision strings sort chronologically.
const RevisionLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is a plain key/value document.
type Record map[string]any

// ID returns the record id, or "".
func (r Record) ID() string {
	s, _ := r[FieldID].(string)
	return s
}

// Revision returns the record's updatedAt stamp.
func (r Record) Revision() (time.Time, error) {
	return parseStamp(r[FieldUpdatedAt])
}

// CreatedAt returns the record's createdAt stamp.
func (r Record) CreatedAt() time.Time {
	t, _ := parseStamp(r[FieldCreatedAt])
	return t
}

func parseStamp(v any) (time.Time, error) {
	switch s := v.(type) {
	case string:
		return time.Parse(time.RFC3339Nano, s)
	case time.Time:
		return s, nil
	}
	return time.Time{}, ErrInvalidRecord
}

// FormatRevision renders t as a canonical revision string.
func FormatRevision(t time.Time) string {
	return t.UTC().Format(RevisionLayout)
}

// Filter is an equality predicate over top-level record keys.
type Filter map[string]any

// Matches reports whether every filter key equals the record's value. Values
// are compared after JSON normalization so 5 and 5.0 are equal.
func (f Filter) Matches(r Record) bool {
	for k, want := range f {
		got, ok := r[k]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !jsonEqual(got, want) {
			return false
		}
	}
	return true
}

func jsonEqual(a, b any) bool {
	aj, err1 := json.Marshal(a)
	bj, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(aj) == string(bj)
}

// Store is the document-store client. Get returns (nil, nil) when the record
// does not exist. Update merges fields and assigns a new revision. Update and
// Delete return ErrNotFound for missing records.
type Store interface {
	Get(ctx context.Context, c Collection, id string) (Record, error)
	List(ctx context.Context, c Collection, filter Filter) ([]Record, error)
	Create(ctx context.Context, c Collection, fields Record) (Record, error)
	Update(ctx context.Context, c Collection, id string, fields Record) (Record, error)
	Delete(ctx context.Context, c Collection, id string) error
	Close() error
}

// ConditionalStore is implemented by stores that can compare the revision and
// write in one atomic step.
type ConditionalStore interface {
	Store
	UpdateIf(ctx context.Context, c Collection, id string, expected time.Time, fields Record) (Record, error)
	DeleteIf(ctx context.Context, c Collection, id string, expected time.Time) error
}

// nextRevision returns a stamp strictly after prev.
func nextRevision(prev, now time.Time) time.Time {
	now = now.UTC()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond).UTC()
	}
	return now
}

// mergeFields copies fields onto base, skipping reserved keys.
func mergeFields(base, fields Record) Record {
	out := make(Record, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		if isReserved(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func isReserved(key string) bool {
	return key == FieldID || key == FieldCreatedAt || key == FieldUpdatedAt
}

// sortRecords orders by createdAt then id.
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ci, cj := records[i].CreatedAt(), records[j].CreatedAt()
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return records[i].ID() < records[j].ID()
	})
}
