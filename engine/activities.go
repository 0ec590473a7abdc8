// ABOUTME: Activity add and edit with lastActivity re-derivation
// ABOUTME: Adds are unguarded creates; edits are guarded and rescan every activity
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// AddActivity logs an activity on the engagement and moves lastActivity
// forward when the new date is later.
func (c *Coordinator) AddActivity(ctx context.Context, engagementID string, in NewActivity) (act *models.Activity, err error) {
	defer c.observe("add_activity", &err)
	if err := c.check(in); err != nil {
		return nil, err
	}
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}

	fields, err := db.Encode(models.Activity{
		EngagementID: engagementID,
		Type:         in.Type,
		Date:         in.Date,
		Description:  in.Description,
		CreatedBy:    c.userID,
	})
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Create(ctx, db.Activities, fields)
	if err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	created, err := decodeAs[models.Activity](rec)
	if err != nil {
		return nil, err
	}

	c.syncLastActivity(ctx, engagementID, cur.LastActivity, func(vm *models.EngagementViewModel) {
		vm.Activities = append(vm.Activities, models.ActivityWithComments{Activity: created, Comments: []models.Comment{}})
		sortActivities(vm.Activities)
	})

	c.record(ctx, engagementID, models.ChangeActivityAdded,
		fmt.Sprintf("Added %s activity on %s", created.Type, created.Date.Format("2006-01-02")),
		nil, strPtr(created.Description))
	return &created, nil
}

// EditActivity changes an activity and recomputes lastActivity across all
// activities, since the edited one may no longer be the latest.
func (c *Coordinator) EditActivity(ctx context.Context, engagementID, activityID string, in ActivityEdit) (act *models.Activity, err error) {
	defer c.observe("edit_activity", &err)
	if err := c.check(in); err != nil {
		return nil, err
	}
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	idx := cur.FindActivity(activityID)
	if idx < 0 {
		return nil, notFound("activity", activityID)
	}
	before := cur.Activities[idx].Activity

	fields := db.Record{}
	if in.Type != nil && *in.Type != before.Type {
		fields["type"] = *in.Type
	}
	if in.Date != nil && !in.Date.Equal(before.Date) {
		fields["date"] = *in.Date
	}
	if in.Description != nil && *in.Description != before.Description {
		fields["description"] = *in.Description
	}
	if len(fields) == 0 {
		return &before, nil
	}

	rec, err := c.guardedUpdate(ctx, db.Activities, activityID, before.UpdatedAt, fields)
	if err != nil {
		return nil, err
	}
	edited, err := decodeAs[models.Activity](rec)
	if err != nil {
		return nil, err
	}

	c.syncLastActivity(ctx, engagementID, cur.LastActivity, func(vm *models.EngagementViewModel) {
		if i := vm.FindActivity(activityID); i >= 0 {
			vm.Activities[i].Activity = edited
		}
		sortActivities(vm.Activities)
	})

	c.record(ctx, engagementID, models.ChangeActivityEdited,
		fmt.Sprintf("Edited %s activity on %s", edited.Type, edited.Date.Format("2006-01-02")),
		strPtr(before.Description), strPtr(edited.Description))
	return &edited, nil
}

// syncLastActivity applies fn to the cached engagement, re-derives
// lastActivity, and writes it back unguarded when it moved.
func (c *Coordinator) syncLastActivity(ctx context.Context, engagementID string, previous time.Time, fn func(vm *models.EngagementViewModel)) {
	vm, ok := c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		fn(vm)
		recomputeActivity(vm, c.now(), c.threshold)
	})
	if !ok || vm.LastActivity.Equal(previous) {
		return
	}

	rec := c.secondaryUpdate(ctx, engagementID, db.Record{"lastActivity": vm.LastActivity})
	if rec == nil {
		return
	}
	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		_ = c.mergeEngagement(vm, rec)
	})
}
