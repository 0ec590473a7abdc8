// ABOUTME: Phase save with completed-date lockstep and current-phase propagation
// ABOUTME: Placeholder phases are created on first save; stored phases are revision-guarded
package engine

import (
	"context"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// SavePhase writes status, notes, and links for one phase of the engagement.
// Entering COMPLETE stamps completedDate and leaving it clears the date.
// Entering IN_PROGRESS also refreshes the engagement's stored currentPhase.
func (c *Coordinator) SavePhase(ctx context.Context, engagementID string, phaseType models.PhaseType, upd PhaseUpdate) (vm *models.EngagementViewModel, err error) {
	defer c.observe("save_phase", &err)
	if !phaseType.IsValid() {
		return nil, invalid("unknown phase %q", phaseType)
	}
	if !upd.Status.IsValid() {
		return nil, invalid("unknown phase status %q", upd.Status)
	}
	if err := c.check(upd); err != nil {
		return nil, err
	}
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	before := cur.Phases[phaseType]

	fields := db.Record{"status": string(upd.Status)}
	switch {
	case upd.Status == models.PhaseComplete && before.Status != models.PhaseComplete:
		fields["completedDate"] = c.now()
	case upd.Status != models.PhaseComplete:
		fields["completedDate"] = nil
	}
	if upd.Notes != nil {
		fields["notes"] = *upd.Notes
	}
	if upd.Links != nil {
		fields["links"] = toLinks(*upd.Links)
	}

	var rec db.Record
	if before.ID == "" {
		fields["engagementId"] = engagementID
		fields["phaseType"] = string(phaseType)
		rec, err = c.store.Create(ctx, db.Phases, fields)
		if err != nil {
			return nil, fmt.Errorf("create %s phase: %w", phaseType, err)
		}
	} else {
		rec, err = c.guardedUpdate(ctx, db.Phases, before.ID, before.UpdatedAt, fields)
		if err != nil {
			return nil, err
		}
	}
	saved, err := decodeAs[models.Phase](rec)
	if err != nil {
		return nil, err
	}

	var engRec db.Record
	if saved.Status == models.PhaseInProgress && cur.StoredPhase != phaseType {
		engRec = c.secondaryUpdate(ctx, engagementID, db.Record{"currentPhase": string(phaseType)})
	}

	if _, err := c.patch(engagementID, func(vm *models.EngagementViewModel) {
		vm.Phases[phaseType] = saved
		if engRec != nil {
			_ = c.mergeEngagement(vm, engRec)
		}
		vm.CurrentPhase = DerivePhase(vm.StoredPhase, vm.Phases)
	}); err != nil {
		return nil, err
	}

	if before.Status != saved.Status {
		c.record(ctx, engagementID, models.ChangePhaseUpdate,
			fmt.Sprintf("%s phase: %s → %s", phaseType, before.Status, saved.Status),
			strPtr(string(before.Status)), strPtr(string(saved.Status)))
	} else {
		c.record(ctx, engagementID, models.ChangePhaseUpdate, fmt.Sprintf("%s phase details updated", phaseType), nil, nil)
	}
	vm, _ = c.cache.Get(engagementID)
	return vm, nil
}
