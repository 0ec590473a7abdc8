// ABOUTME: Comment mutations on activities
// ABOUTME: Comment edits touch only the comment itself; no engagement aggregates depend on them
package engine

import (
	"context"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// AddComment appends a comment to an activity.
func (c *Coordinator) AddComment(ctx context.Context, engagementID, activityID, content string) (comment *models.Comment, err error) {
	defer c.observe("add_comment", &err)
	if err := c.checkText(content); err != nil {
		return nil, err
	}
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if cur.FindActivity(activityID) < 0 {
		return nil, notFound("activity", activityID)
	}

	fields, err := db.Encode(models.Comment{ActivityID: activityID, AuthorID: c.userID, Content: content})
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Create(ctx, db.Comments, fields)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	created, err := decodeAs[models.Comment](rec)
	if err != nil {
		return nil, err
	}

	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		if i := vm.FindActivity(activityID); i >= 0 {
			vm.Activities[i].Comments = append(vm.Activities[i].Comments, created)
			sortComments(vm.Activities[i].Comments)
		}
	})
	c.record(ctx, engagementID, models.ChangeCommentAdded, "Commented on activity", nil, strPtr(content))
	return &created, nil
}

// EditComment replaces a comment's content.
func (c *Coordinator) EditComment(ctx context.Context, engagementID, activityID, commentID, content string) (comment *models.Comment, err error) {
	defer c.observe("edit_comment", &err)
	if err := c.checkText(content); err != nil {
		return nil, err
	}
	before, err := c.cachedComment(ctx, engagementID, activityID, commentID)
	if err != nil {
		return nil, err
	}
	if before.Content == content {
		return &before, nil
	}

	rec, err := c.guardedUpdate(ctx, db.Comments, commentID, before.UpdatedAt, db.Record{"content": content})
	if err != nil {
		return nil, err
	}
	edited, err := decodeAs[models.Comment](rec)
	if err != nil {
		return nil, err
	}

	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		if i := vm.FindActivity(activityID); i >= 0 {
			for j := range vm.Activities[i].Comments {
				if vm.Activities[i].Comments[j].ID == commentID {
					vm.Activities[i].Comments[j] = edited
				}
			}
		}
	})
	c.record(ctx, engagementID, models.ChangeCommentEdited, "Edited comment", strPtr(before.Content), strPtr(content))
	return &edited, nil
}

// DeleteComment removes one comment.
func (c *Coordinator) DeleteComment(ctx context.Context, engagementID, activityID, commentID string) (err error) {
	defer c.observe("delete_comment", &err)
	before, err := c.cachedComment(ctx, engagementID, activityID, commentID)
	if err != nil {
		return err
	}
	if err := c.guardedDelete(ctx, db.Comments, commentID, before.UpdatedAt); err != nil {
		return err
	}

	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		if i := vm.FindActivity(activityID); i >= 0 {
			vm.Activities[i].Comments = removeComment(vm.Activities[i].Comments, commentID)
		}
	})
	c.record(ctx, engagementID, models.ChangeCommentDeleted, "Deleted comment", strPtr(before.Content), nil)
	return nil
}

func (c *Coordinator) cachedComment(ctx context.Context, engagementID, activityID, commentID string) (models.Comment, error) {
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return models.Comment{}, err
	}
	i := cur.FindActivity(activityID)
	if i < 0 {
		return models.Comment{}, notFound("activity", activityID)
	}
	for _, cm := range cur.Activities[i].Comments {
		if cm.ID == commentID {
			return cm, nil
		}
	}
	return models.Comment{}, notFound("comment", commentID)
}

func removeComment(list []models.Comment, id string) []models.Comment {
	out := list[:0]
	for _, cm := range list {
		if cm.ID != id {
			out = append(out, cm)
		}
	}
	return out
}
