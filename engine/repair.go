// ABOUTME: Saga recovery for engagements left half-created or with drifted derived fields
// ABOUTME: Every step is idempotent so repair can run any number of times
package engine

import (
	"context"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// RepairResult reports what Repair changed.
type RepairResult struct {
	EngagementID      string
	PhasesCreated     int
	OwnerCreated      bool
	LastActivityFixed bool
	CurrentPhaseFixed bool
}

// Changed reports whether any step wrote.
func (r RepairResult) Changed() bool {
	return r.PhasesCreated > 0 || r.OwnerCreated || r.LastActivityFixed || r.CurrentPhaseFixed
}

// Repair finishes the creation saga for one engagement and rewrites stored
// lastActivity and currentPhase when they disagree with the child records.
func (c *Coordinator) Repair(ctx context.Context, engagementID string) (res RepairResult, err error) {
	defer c.observe("repair", &err)
	res.EngagementID = engagementID

	rec, err := c.store.Get(ctx, db.Engagements, engagementID)
	if err != nil {
		return res, fmt.Errorf("get engagement %s: %w", engagementID, err)
	}
	if rec == nil {
		c.cache.Remove(engagementID)
		return res, notFound("engagement", engagementID)
	}
	stored, err := decodeAs[models.Engagement](rec)
	if err != nil {
		return res, err
	}

	phases, created, err := c.ensurePhases(ctx, engagementID)
	if err != nil {
		return res, err
	}
	res.PhasesCreated = created

	if owner := stored.CreatedBy; owner != "" {
		existing, err := listAs[models.EngagementOwner](ctx, c.store, db.EngagementOwners, db.Filter{"engagementId": engagementID})
		if err != nil {
			return res, err
		}
		if len(existing) == 0 {
			if _, err := c.ensureOwner(ctx, engagementID, owner); err != nil {
				return res, err
			}
			res.OwnerCreated = true
		}
	}

	activities, err := listAs[models.Activity](ctx, c.store, db.Activities, db.Filter{"engagementId": engagementID})
	if err != nil {
		return res, err
	}
	withComments := make([]models.ActivityWithComments, len(activities))
	for i, a := range activities {
		withComments[i] = models.ActivityWithComments{Activity: a}
	}

	fields := db.Record{}
	if last := LatestActivity(stored.StartDate, withComments); !last.Equal(stored.LastActivity) {
		fields["lastActivity"] = last
		res.LastActivityFixed = true
	}
	if phase := DerivePhase(stored.CurrentPhase, phaseMap(engagementID, phases)); phase != stored.CurrentPhase {
		fields["currentPhase"] = string(phase)
		res.CurrentPhaseFixed = true
	}
	if len(fields) > 0 {
		if _, err := c.store.Update(ctx, db.Engagements, engagementID, fields); err != nil {
			return res, fmt.Errorf("repair engagement %s: %w", engagementID, err)
		}
	}

	if res.Changed() {
		c.log.Info("engagement repaired", "engagement_id", engagementID,
			"phases_created", res.PhasesCreated, "owner_created", res.OwnerCreated,
			"last_activity", res.LastActivityFixed, "current_phase", res.CurrentPhaseFixed)
	}
	if _, err := c.Refresh(ctx, engagementID); err != nil {
		return res, err
	}
	return res, nil
}

// RepairAll runs Repair over every stored engagement.
func (c *Coordinator) RepairAll(ctx context.Context) ([]RepairResult, error) {
	records, err := c.store.List(ctx, db.Engagements, nil)
	if err != nil {
		return nil, fmt.Errorf("list engagements: %w", err)
	}
	out := make([]RepairResult, 0, len(records))
	for _, r := range records {
		res, err := c.Repair(ctx, r.ID())
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}
