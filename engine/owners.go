// ABOUTME: Engagement ownership mutations over the owner join rows
// ABOUTME: Adds are idempotent creates; removals are guarded on the join row, not the engagement
package engine

import (
	"context"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// AddOwner makes teamMemberID an owner. An existing owner is returned as is.
func (c *Coordinator) AddOwner(ctx context.Context, engagementID, teamMemberID string) (owner *models.EngagementOwner, err error) {
	defer c.observe("add_owner", &err)
	if teamMemberID == "" {
		return nil, invalid("team member id is required")
	}
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	for _, o := range cur.Owners {
		if o.TeamMemberID == teamMemberID {
			return &o, nil
		}
	}

	created, err := c.ensureOwner(ctx, engagementID, teamMemberID)
	if err != nil {
		return nil, err
	}
	members := c.teamMemberMap()
	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		vm.Owners = append(vm.Owners, *created)
		recomputeOwners(vm, members)
	})
	c.record(ctx, engagementID, models.ChangeOwnerAdded, fmt.Sprintf("Added owner %s", displayName(members, teamMemberID)), nil, strPtr(teamMemberID))
	return created, nil
}

// RemoveOwner deletes one ownership row.
func (c *Coordinator) RemoveOwner(ctx context.Context, engagementID, ownerID string) (err error) {
	defer c.observe("remove_owner", &err)
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return err
	}
	var row *models.EngagementOwner
	for i := range cur.Owners {
		if cur.Owners[i].ID == ownerID {
			row = &cur.Owners[i]
		}
	}
	if row == nil {
		return notFound("owner", ownerID)
	}

	if err := c.guardedDelete(ctx, db.EngagementOwners, ownerID, row.UpdatedAt); err != nil {
		return err
	}
	members := c.teamMemberMap()
	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		out := vm.Owners[:0]
		for _, o := range vm.Owners {
			if o.ID != ownerID {
				out = append(out, o)
			}
		}
		vm.Owners = out
		recomputeOwners(vm, members)
	})
	c.record(ctx, engagementID, models.ChangeOwnerRemoved, fmt.Sprintf("Removed owner %s", displayName(members, row.TeamMemberID)), strPtr(row.TeamMemberID), nil)
	return nil
}

// ensureOwner returns the ownership row for the pair, creating it if missing.
func (c *Coordinator) ensureOwner(ctx context.Context, engagementID, teamMemberID string) (*models.EngagementOwner, error) {
	existing, err := listAs[models.EngagementOwner](ctx, c.store, db.EngagementOwners, db.Filter{
		"engagementId": engagementID,
		"teamMemberId": teamMemberID,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	fields, err := db.Encode(models.EngagementOwner{EngagementID: engagementID, TeamMemberID: teamMemberID})
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Create(ctx, db.EngagementOwners, fields)
	if err != nil {
		return nil, fmt.Errorf("create owner: %w", err)
	}
	owner, err := decodeAs[models.EngagementOwner](rec)
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

func displayName(members map[string]models.TeamMember, id string) string {
	if m, ok := members[id]; ok && m.Name != "" {
		return m.Name
	}
	return id
}
