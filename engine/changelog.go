// ABOUTME: Best-effort change-log recorder and field diffing for engagement edits
// ABOUTME: Append failures are logged and counted but never fail the mutation that caused them
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// ChangeRecorder appends ChangeLog entries.
type ChangeRecorder struct {
	store   db.Store
	log     *log.Logger
	metrics *Metrics
}

func NewChangeRecorder(store db.Store, logger *log.Logger, metrics *Metrics) *ChangeRecorder {
	return &ChangeRecorder{store: store, log: logger, metrics: metrics}
}

// Record stores entry and returns the stored log, or nil when the append failed.
func (r *ChangeRecorder) Record(ctx context.Context, entry models.ChangeLog) *models.ChangeLog {
	fields, err := db.Encode(entry)
	if err == nil {
		var rec db.Record
		rec, err = r.store.Create(ctx, db.ChangeLogs, fields)
		if err == nil {
			var stored models.ChangeLog
			if err = db.Decode(rec, &stored); err == nil {
				return &stored
			}
		}
	}

	r.metrics.changeLogFailure()
	r.log.Warn("change log append failed",
		"engagement_id", entry.EngagementID,
		"change_type", entry.ChangeType,
		"err", err)
	return nil
}

// fieldChange is one differing attribute between two engagement snapshots.
type fieldChange struct {
	Field string
	Old   string
	New   string
}

// diffEngagement lists the attribute fields that differ between before and after.
func diffEngagement(before, after models.Engagement) []fieldChange {
	var changes []fieldChange
	add := func(field, old, new string) {
		if old != new {
			changes = append(changes, fieldChange{Field: field, Old: old, New: new})
		}
	}
	add("company", before.Company, after.Company)
	add("contactName", before.ContactName, after.ContactName)
	add("contactEmail", before.ContactEmail, after.ContactEmail)
	add("contactPhone", before.ContactPhone, after.ContactPhone)
	add("industry", before.Industry, after.Industry)
	add("dealValue", formatCents(before.DealValue), formatCents(after.DealValue))
	return changes
}

func describeChanges(changes []fieldChange) (desc, prev, next string) {
	parts := make([]string, len(changes))
	olds := make([]string, len(changes))
	news := make([]string, len(changes))
	for i, ch := range changes {
		parts[i] = fmt.Sprintf("%s: %q → %q", ch.Field, ch.Old, ch.New)
		olds[i] = ch.Field + "=" + ch.Old
		news[i] = ch.Field + "=" + ch.New
	}
	return "Updated " + strings.Join(parts, "; "), strings.Join(olds, "; "), strings.Join(news, "; ")
}

func formatCents(cents int64) string {
	if cents == 0 {
		return ""
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
