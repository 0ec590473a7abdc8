// ABOUTME: Cascading deletes for activities and whole engagements
// ABOUTME: Each child is a separate store call; a child already gone counts as deleted
package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/oklog/ulid/v2"
)

// DeleteActivity removes an activity and every comment on it, then re-derives
// lastActivity from what remains. A failure partway leaves the comments that
// were already removed deleted.
func (c *Coordinator) DeleteActivity(ctx context.Context, engagementID, activityID string) (err error) {
	defer c.observe("delete_activity", &err)
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return err
	}
	idx := cur.FindActivity(activityID)
	if idx < 0 {
		return notFound("activity", activityID)
	}
	before := cur.Activities[idx].Activity

	res, err := c.guard.Check(ctx, db.Activities, activityID, before.UpdatedAt)
	if err != nil {
		return err
	}
	if res.Conflict {
		return c.conflict(db.Activities, activityID, res)
	}

	removed, err := c.sweep(ctx, db.Comments, db.Filter{"activityId": activityID})
	c.metrics.cascadeDeleted(string(db.Comments), len(removed))
	if err == nil {
		err = c.deleteChecked(ctx, db.Activities, activityID, before.UpdatedAt)
	}
	if err != nil {
		c.log.Error("activity cascade incomplete", "engagement_id", engagementID, "activity_id", activityID, "comments_removed", len(removed), "err", err)
		c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
			if i := vm.FindActivity(activityID); i >= 0 {
				for _, id := range removed {
					vm.Activities[i].Comments = removeComment(vm.Activities[i].Comments, id)
				}
			}
		})
		return err
	}
	c.metrics.cascadeDeleted(string(db.Activities), 1)

	c.syncLastActivity(ctx, engagementID, cur.LastActivity, func(vm *models.EngagementViewModel) {
		if i := vm.FindActivity(activityID); i >= 0 {
			vm.Activities = append(vm.Activities[:i], vm.Activities[i+1:]...)
		}
	})

	desc := fmt.Sprintf("Deleted %s activity on %s", before.Type, before.Date.Format("2006-01-02"))
	if len(removed) > 0 {
		desc += fmt.Sprintf(" with %d comments", len(removed))
	}
	c.record(ctx, engagementID, models.ChangeActivityDeleted, desc, strPtr(before.Description), nil)
	return nil
}

// DeleteEngagement removes the engagement and every record that hangs off it,
// writes one audit record, and evicts it from the cache. Running it again
// after a partial failure finishes the job.
func (c *Coordinator) DeleteEngagement(ctx context.Context, engagementID string) (audit *models.AuditRecord, err error) {
	defer c.observe("delete_engagement", &err)

	var expected models.Engagement
	rec, err := c.store.Get(ctx, db.Engagements, engagementID)
	if err != nil {
		return nil, fmt.Errorf("get engagement %s: %w", engagementID, err)
	}
	exists := rec != nil
	if exists {
		if err := db.Decode(rec, &expected); err != nil {
			return nil, err
		}
		if vm, ok := c.cache.Get(engagementID); ok && !vm.UpdatedAt.Equal(expected.UpdatedAt) {
			return nil, c.conflict(db.Engagements, engagementID, ConflictResult{Conflict: true, Current: rec})
		}
	}

	removed := map[string]int{}
	activities, err := listAs[models.Activity](ctx, c.store, db.Activities, db.Filter{"engagementId": engagementID})
	if err != nil {
		return nil, err
	}
	for _, a := range activities {
		ids, err := c.sweep(ctx, db.Comments, db.Filter{"activityId": a.ID})
		removed[string(db.Comments)] += len(ids)
		if err != nil {
			return nil, c.cascadeFailed(engagementID, removed, err)
		}
	}

	byEngagement := db.Filter{"engagementId": engagementID}
	for _, coll := range []db.Collection{
		db.Activities, db.Phases, db.PhaseNotes, db.ChangeLogs,
		db.EngagementOwners, db.EngagementViews, db.ShareLinks,
	} {
		ids, err := c.sweep(ctx, coll, byEngagement)
		removed[string(coll)] += len(ids)
		if err != nil {
			return nil, c.cascadeFailed(engagementID, removed, err)
		}
	}

	if exists {
		if err := c.deleteChecked(ctx, db.Engagements, engagementID, expected.UpdatedAt); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, c.cascadeFailed(engagementID, removed, err)
			}
		} else {
			removed[string(db.Engagements)] = 1
		}
	}
	for coll, n := range removed {
		c.metrics.cascadeDeleted(coll, n)
	}

	audit = &models.AuditRecord{
		Action:        "DELETE_ENGAGEMENT",
		EngagementID:  engagementID,
		Company:       expected.Company,
		UserID:        c.userID,
		CorrelationID: c.correlationID(),
		Removed:       removed,
	}
	c.writeAudit(ctx, audit)
	c.cache.Remove(engagementID)
	c.log.Info("engagement deleted", "engagement_id", engagementID, "correlation_id", audit.CorrelationID, "removed", removed)
	return audit, nil
}

// sweep deletes every record in coll matching filter and returns the ids it
// removed. Records that vanish in between are counted as removed.
func (c *Coordinator) sweep(ctx context.Context, coll db.Collection, filter db.Filter) ([]string, error) {
	records, err := c.store.List(ctx, coll, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", coll, err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		id := r.ID()
		if err := c.store.Delete(ctx, coll, id); err != nil && !isStoreNotFound(err) {
			return ids, fmt.Errorf("delete %s %s: %w", coll, id, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Coordinator) cascadeFailed(engagementID string, removed map[string]int, err error) error {
	for coll, n := range removed {
		c.metrics.cascadeDeleted(coll, n)
	}
	c.log.Error("engagement cascade incomplete", "engagement_id", engagementID, "removed", removed, "err", err)
	return err
}

func (c *Coordinator) correlationID() string {
	id, err := ulid.New(ulid.Timestamp(c.now()), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}

func (c *Coordinator) writeAudit(ctx context.Context, audit *models.AuditRecord) {
	fields, err := db.Encode(audit)
	if err == nil {
		var rec db.Record
		if rec, err = c.store.Create(ctx, db.AuditLog, fields); err == nil {
			_ = db.Decode(rec, audit)
			return
		}
	}
	c.log.Warn("audit write failed", "engagement_id", audit.EngagementID, "correlation_id", audit.CorrelationID, "err", err)
}
