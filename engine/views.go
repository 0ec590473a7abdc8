// ABOUTME: View tracking for unread-change counts
// ABOUTME: View rows are viewer-owned and written without a revision guard
package engine

import (
	"context"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// RecordView stamps viewerID's last view of the engagement with the current
// time. For the session user the cached unread count drops to zero. An empty
// viewerID means the session user.
func (c *Coordinator) RecordView(ctx context.Context, engagementID, viewerID string) (err error) {
	defer c.observe("record_view", &err)
	if viewerID == "" {
		viewerID = c.userID
	}
	if _, err := c.engagement(ctx, engagementID); err != nil {
		return err
	}

	now := c.now()
	existing, err := listAs[models.EngagementView](ctx, c.store, db.EngagementViews, db.Filter{
		"engagementId": engagementID,
		"viewerId":     viewerID,
	})
	if err != nil {
		return err
	}

	var rec db.Record
	if len(existing) > 0 {
		rec, err = c.store.Update(ctx, db.EngagementViews, existing[0].ID, db.Record{"lastViewedAt": now})
	}
	if len(existing) == 0 || isStoreNotFound(err) {
		var fields db.Record
		if fields, err = db.Encode(models.EngagementView{EngagementID: engagementID, ViewerID: viewerID, LastViewedAt: now}); err != nil {
			return err
		}
		rec, err = c.store.Create(ctx, db.EngagementViews, fields)
	}
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	view, err := decodeAs[models.EngagementView](rec)
	if err != nil {
		return err
	}

	if viewerID == c.userID {
		c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
			vm.LastView = &view
			vm.UnreadChanges = 0
		})
	}
	return nil
}
