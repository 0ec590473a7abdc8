// ABOUTME: Data models for engagement tracking records
// ABOUTME: Defines Engagement, Phase, Activity, Comment, notes, ownership, views, and change logs
package models

import (
	"time"
)

// PhaseType identifies one of the fixed, ordered pursuit phases.
type PhaseType string

const (
	PhaseDiscover PhaseType = "DISCOVER"
	PhaseQualify  PhaseType = "QUALIFY"
	PhaseDesign   PhaseType = "DESIGN"
	PhasePropose  PhaseType = "PROPOSE"
	PhaseClose    PhaseType = "CLOSE"
)

// PhaseTypes is the configured phase order. Every engagement carries exactly one
// Phase row per entry.
var PhaseTypes = []PhaseType{PhaseDiscover, PhaseQualify, PhaseDesign, PhasePropose, PhaseClose}

// IsValid reports whether p is one of the configured phase types.
func (p PhaseType) IsValid() bool {
	return p.Index() >= 0
}

// Index returns the position of p in PhaseTypes, or -1.
func (p PhaseType) Index() int {
	for i, t := range PhaseTypes {
		if t == p {
			return i
		}
	}
	return -1
}

type PhaseStatus string

const (
	PhasePending    PhaseStatus = "PENDING"
	PhaseInProgress PhaseStatus = "IN_PROGRESS"
	PhaseComplete   PhaseStatus = "COMPLETE"
	PhaseBlocked    PhaseStatus = "BLOCKED"
	PhaseSkipped    PhaseStatus = "SKIPPED"
)

// IsValid reports whether s is a known phase status.
func (s PhaseStatus) IsValid() bool {
	switch s {
	case PhasePending, PhaseInProgress, PhaseComplete, PhaseBlocked, PhaseSkipped:
		return true
	}
	return false
}

type EngagementStatus string

const (
	StatusActive       EngagementStatus = "ACTIVE"
	StatusOnHold       EngagementStatus = "ON_HOLD"
	StatusUnresponsive EngagementStatus = "UNRESPONSIVE"
	StatusWon          EngagementStatus = "WON"
	StatusLost         EngagementStatus = "LOST"
	StatusDisqualified EngagementStatus = "DISQUALIFIED"
	StatusNoDecision   EngagementStatus = "NO_DECISION"
)

// IsValid reports whether s is a known engagement status.
func (s EngagementStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusUnresponsive:
		return true
	}
	return s.IsClosed()
}

// IsClosed reports whether s ends the pursuit. Closed engagements are archived
// and never stale.
func (s EngagementStatus) IsClosed() bool {
	switch s {
	case StatusWon, StatusLost, StatusDisqualified, StatusNoDecision:
		return true
	}
	return false
}

// ChangeType classifies a ChangeLog entry.
type ChangeType string

const (
	ChangeCreated            ChangeType = "CREATED"
	ChangeDetailsUpdated     ChangeType = "DETAILS_UPDATED"
	ChangeStatusChanged      ChangeType = "STATUS_CHANGED"
	ChangeArchived           ChangeType = "ARCHIVED"
	ChangeRestored           ChangeType = "RESTORED"
	ChangeCompetitorsUpdated ChangeType = "COMPETITORS_UPDATED"
	ChangeSalesRepChanged    ChangeType = "SALES_REP_CHANGED"
	ChangePhaseUpdate        ChangeType = "PHASE_UPDATE"
	ChangeActivityAdded      ChangeType = "ACTIVITY_ADDED"
	ChangeActivityEdited     ChangeType = "ACTIVITY_EDITED"
	ChangeActivityDeleted    ChangeType = "ACTIVITY_DELETED"
	ChangeCommentAdded       ChangeType = "COMMENT_ADDED"
	ChangeCommentEdited      ChangeType = "COMMENT_EDITED"
	ChangeCommentDeleted     ChangeType = "COMMENT_DELETED"
	ChangeNoteAdded          ChangeType = "NOTE_ADDED"
	ChangeNoteEdited         ChangeType = "NOTE_EDITED"
	ChangeNoteDeleted        ChangeType = "NOTE_DELETED"
	ChangeOwnerAdded         ChangeType = "OWNER_ADDED"
	ChangeOwnerRemoved       ChangeType = "OWNER_REMOVED"
	ChangeShareLinkCreated   ChangeType = "SHARE_LINK_CREATED"
	ChangeShareLinkRevoked   ChangeType = "SHARE_LINK_REVOKED"
)

// Competitor codes.
const (
	CompetitorOther = "OTHER"
)

// Activity types.
const (
	ActivityCall    = "CALL"
	ActivityEmail   = "EMAIL"
	ActivityMeeting = "MEETING"
	ActivityDemo    = "DEMO"
	ActivityNote    = "NOTE"
)

type Engagement struct {
	ID               string           `json:"id"`
	Company          string           `json:"company"`
	ContactName      string           `json:"contactName,omitempty"`
	ContactEmail     string           `json:"contactEmail,omitempty"`
	ContactPhone     string           `json:"contactPhone,omitempty"`
	Industry         string           `json:"industry,omitempty"`
	DealValue        int64            `json:"dealValue,omitempty"` // in cents
	StartDate        time.Time        `json:"startDate"`
	CurrentPhase     PhaseType        `json:"currentPhase"`
	EngagementStatus EngagementStatus `json:"engagementStatus"`
	ClosedReason     string           `json:"closedReason,omitempty"`
	IsArchived       bool             `json:"isArchived"`
	Competitors      []string         `json:"competitors,omitempty"`
	OtherCompetitor  string           `json:"otherCompetitor,omitempty"`
	SalesRepID       string           `json:"salesRepId,omitempty"`
	OwnerID          string           `json:"ownerId,omitempty"` // legacy single owner
	LastActivity     time.Time        `json:"lastActivity"`
	CreatedBy        string           `json:"createdBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// PhaseLink is an ordered reference attached to a phase.
type PhaseLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Phase struct {
	ID            string      `json:"id"`
	EngagementID  string      `json:"engagementId"`
	PhaseType     PhaseType   `json:"phaseType"`
	Status        PhaseStatus `json:"status"`
	CompletedDate *time.Time  `json:"completedDate,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Links         []PhaseLink `json:"links,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type Activity struct {
	ID           string    `json:"id"`
	EngagementID string    `json:"engagementId"`
	Type         string    `json:"type"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description,omitempty"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Comment struct {
	ID         string    `json:"id"`
	ActivityID string    `json:"activityId"`
	AuthorID   string    `json:"authorId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type PhaseNote struct {
	ID           string    `json:"id"`
	EngagementID string    `json:"engagementId"`
	PhaseType    PhaseType `json:"phaseType"`
	Text         string    `json:"text"`
	AuthorID     string    `json:"authorId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChangeLog is append-only. It carries no revision stamp because it is never
// updated after creation.
type ChangeLog struct {
	ID            string     `json:"id"`
	EngagementID  string     `json:"engagementId"`
	UserID        string     `json:"userId"`
	ChangeType    ChangeType `json:"changeType"`
	Description   string     `json:"description"`
	PreviousValue *string    `json:"previousValue,omitempty"`
	NewValue      *string    `json:"newValue,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// EngagementOwner joins an engagement to a team member.
type EngagementOwner struct {
	ID           string    `json:"id"`
	EngagementID string    `json:"engagementId"`
	TeamMemberID string    `json:"teamMemberId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type EngagementView struct {
	ID           string    `json:"id"`
	EngagementID string    `json:"engagementId"`
	ViewerID     string    `json:"viewerId"`
	LastViewedAt time.Time `json:"lastViewedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ShareLink struct {
	ID           string    `json:"id"`
	EngagementID string    `json:"engagementId"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsActive     bool      `json:"isActive"`
	ViewCount    int       `json:"viewCount"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Usable reports whether the link grants access at now.
func (l *ShareLink) Usable(now time.Time) bool {
	return l.IsActive && now.Before(l.ExpiresAt)
}

type SalesRep struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"isActive"`
	IsSystem  bool      `json:"isSystem,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuditRecord summarizes an administrative deletion. Removed maps collection
// name to the number of records deleted.
type AuditRecord struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	EngagementID  string         `json:"engagementId"`
	Company       string         `json:"company,omitempty"`
	UserID        string         `json:"userId"`
	CorrelationID string         `json:"correlationId"`
	Removed       map[string]int `json:"removed"`
	CreatedAt     time.Time      `json:"createdAt"`
}
