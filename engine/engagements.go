// ABOUTME: Engagement-level mutations: creation saga, phase repair, attributes, status, archive, competitors
// ABOUTME: Every edit of an existing engagement is guarded on the engagement's revision
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// CreateEngagement runs the creation saga: engagement, then every phase,
// then the creator's ownership row, then the CREATED log. Each step is
// idempotent, so Repair can finish a partially applied run.
func (c *Coordinator) CreateEngagement(ctx context.Context, in NewEngagement) (vm *models.EngagementViewModel, err error) {
	defer c.observe("create_engagement", &err)
	if err := c.check(in); err != nil {
		return nil, err
	}
	if in.SalesRepID != "" {
		if err := c.requireSalesRep(ctx, in.SalesRepID); err != nil {
			return nil, err
		}
	}

	start := in.StartDate
	if start.IsZero() {
		start = c.now()
	}
	competitors, other := normalizeCompetitors(in.Competitors, in.OtherCompetitor)

	fields, err := db.Encode(models.Engagement{
		Company:          strings.TrimSpace(in.Company),
		ContactName:      in.ContactName,
		ContactEmail:     in.ContactEmail,
		ContactPhone:     in.ContactPhone,
		Industry:         in.Industry,
		DealValue:        in.DealValue,
		StartDate:        start,
		CurrentPhase:     models.PhaseTypes[0],
		EngagementStatus: models.StatusActive,
		Competitors:      competitors,
		OtherCompetitor:  other,
		SalesRepID:       in.SalesRepID,
		LastActivity:     start,
		CreatedBy:        c.userID,
	})
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Create(ctx, db.Engagements, fields)
	if err != nil {
		return nil, fmt.Errorf("create engagement: %w", err)
	}
	e, err := decodeAs[models.Engagement](rec)
	if err != nil {
		return nil, err
	}

	phases, _, err := c.ensurePhases(ctx, e.ID)
	if err != nil {
		c.log.Error("engagement creation incomplete", "engagement_id", e.ID, "step", "phases", "err", err)
		return nil, err
	}
	var owners []models.EngagementOwner
	if c.userID != "" {
		owner, err := c.ensureOwner(ctx, e.ID, c.userID)
		if err != nil {
			c.log.Error("engagement creation incomplete", "engagement_id", e.ID, "step", "owner", "err", err)
			return nil, err
		}
		owners = append(owners, *owner)
	}

	reps, members := c.lookupSlices()
	ectx := NewContext(Collections{Phases: phases, Owners: owners, SalesReps: reps, TeamMembers: members}, c.userID, c.now(), c.threshold)
	c.cache.Put(Enrich(e, ectx))

	c.record(ctx, e.ID, models.ChangeCreated, fmt.Sprintf("Created engagement %s", e.Company), nil, strPtr(e.Company))
	vm, _ = c.cache.Get(e.ID)
	return vm, nil
}

// EnsurePhases creates any missing phase rows for the engagement and removes
// duplicates, returning how many rows were created.
func (c *Coordinator) EnsurePhases(ctx context.Context, engagementID string) (created int, err error) {
	defer c.observe("ensure_phases", &err)
	phases, created, err := c.ensurePhases(ctx, engagementID)
	if err != nil {
		return 0, err
	}
	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		vm.Phases = phaseMap(engagementID, phases)
		vm.CurrentPhase = DerivePhase(vm.StoredPhase, vm.Phases)
	})
	return created, nil
}

// ensurePhases returns the engagement's phase rows after repair.
func (c *Coordinator) ensurePhases(ctx context.Context, engagementID string) ([]models.Phase, int, error) {
	existing, err := listAs[models.Phase](ctx, c.store, db.Phases, db.Filter{"engagementId": engagementID})
	if err != nil {
		return nil, 0, err
	}

	byType := make(map[models.PhaseType]models.Phase, len(existing))
	inProgress := false
	for _, p := range existing {
		if prev, dup := byType[p.PhaseType]; dup || !p.PhaseType.IsValid() {
			// Oldest row per type wins; List is ordered by createdAt
			if err := c.store.Delete(ctx, db.Phases, p.ID); err != nil && !isStoreNotFound(err) {
				return nil, 0, fmt.Errorf("remove duplicate phase %s: %w", p.ID, err)
			}
			c.log.Warn("removed extra phase row", "engagement_id", engagementID, "phase_id", p.ID, "kept", prev.ID)
			continue
		}
		byType[p.PhaseType] = p
		if p.Status == models.PhaseInProgress {
			inProgress = true
		}
	}

	created := 0
	out := make([]models.Phase, 0, len(models.PhaseTypes))
	for i, t := range models.PhaseTypes {
		if p, ok := byType[t]; ok {
			out = append(out, p)
			continue
		}
		status := models.PhasePending
		if i == 0 && !inProgress {
			status = models.PhaseInProgress
		}
		fields, err := db.Encode(models.Phase{EngagementID: engagementID, PhaseType: t, Status: status})
		if err != nil {
			return nil, 0, err
		}
		rec, err := c.store.Create(ctx, db.Phases, fields)
		if err != nil {
			return nil, created, fmt.Errorf("create %s phase: %w", t, err)
		}
		p, err := decodeAs[models.Phase](rec)
		if err != nil {
			return nil, created, err
		}
		out = append(out, p)
		created++
	}
	return out, created, nil
}

// UpdateDetails edits company and contact attributes. Unchanged input writes nothing.
func (c *Coordinator) UpdateDetails(ctx context.Context, engagementID string, in EngagementDetails) (vm *models.EngagementViewModel, err error) {
	defer c.observe("update_details", &err)
	if err := c.check(in); err != nil {
		return nil, err
	}
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}

	after := cur.Engagement
	fields := db.Record{}
	if in.Company != nil {
		after.Company = strings.TrimSpace(*in.Company)
		fields["company"] = after.Company
	}
	if in.ContactName != nil {
		after.ContactName = *in.ContactName
		fields["contactName"] = after.ContactName
	}
	if in.ContactEmail != nil {
		after.ContactEmail = *in.ContactEmail
		fields["contactEmail"] = after.ContactEmail
	}
	if in.ContactPhone != nil {
		after.ContactPhone = *in.ContactPhone
		fields["contactPhone"] = after.ContactPhone
	}
	if in.Industry != nil {
		after.Industry = *in.Industry
		fields["industry"] = after.Industry
	}
	if in.DealValue != nil {
		after.DealValue = *in.DealValue
		fields["dealValue"] = after.DealValue
	}

	changes := diffEngagement(cur.Engagement, after)
	if len(changes) == 0 {
		return cur, nil
	}

	rec, err := c.guardedUpdate(ctx, db.Engagements, engagementID, cur.UpdatedAt, fields)
	if err != nil {
		return nil, err
	}
	if _, err := c.patch(engagementID, func(vm *models.EngagementViewModel) {
		_ = c.mergeEngagement(vm, rec)
	}); err != nil {
		return nil, err
	}

	desc, prev, next := describeChanges(changes)
	c.record(ctx, engagementID, models.ChangeDetailsUpdated, desc, &prev, &next)
	vm, _ = c.cache.Get(engagementID)
	return vm, nil
}

// ChangeStatus moves the engagement to status. A closed status archives the
// engagement and clears staleness; reason is kept only for closed statuses.
func (c *Coordinator) ChangeStatus(ctx context.Context, engagementID string, status models.EngagementStatus, reason string) (vm *models.EngagementViewModel, err error) {
	defer c.observe("change_status", &err)
	if !status.IsValid() {
		return nil, invalid("unknown engagement status %q", status)
	}
	if len(reason) > maxTextLen {
		return nil, invalid("closed reason longer than %d bytes", maxTextLen)
	}
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if cur.EngagementStatus == status && cur.ClosedReason == closedReason(status, reason) {
		return cur, nil
	}

	fields := db.Record{
		"engagementStatus": string(status),
		"closedReason":     closedReason(status, reason),
	}
	if status.IsClosed() {
		fields["isArchived"] = true
	}

	rec, err := c.guardedUpdate(ctx, db.Engagements, engagementID, cur.UpdatedAt, fields)
	if err != nil {
		return nil, err
	}
	if _, err := c.patch(engagementID, func(vm *models.EngagementViewModel) {
		_ = c.mergeEngagement(vm, rec)
	}); err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Status changed from %s to %s", cur.EngagementStatus, status)
	if r := closedReason(status, reason); r != "" {
		desc += ": " + r
	}
	c.record(ctx, engagementID, models.ChangeStatusChanged, desc, strPtr(string(cur.EngagementStatus)), strPtr(string(status)))
	vm, _ = c.cache.Get(engagementID)
	return vm, nil
}

func closedReason(status models.EngagementStatus, reason string) string {
	if !status.IsClosed() {
		return ""
	}
	return strings.TrimSpace(reason)
}

// Archive hides the engagement from active views.
func (c *Coordinator) Archive(ctx context.Context, engagementID string) (vm *models.EngagementViewModel, err error) {
	defer c.observe("archive", &err)
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if cur.IsArchived {
		return cur, nil
	}

	rec, err := c.guardedUpdate(ctx, db.Engagements, engagementID, cur.UpdatedAt, db.Record{"isArchived": true})
	if err != nil {
		return nil, err
	}
	if _, err := c.patch(engagementID, func(vm *models.EngagementViewModel) {
		_ = c.mergeEngagement(vm, rec)
	}); err != nil {
		return nil, err
	}

	c.record(ctx, engagementID, models.ChangeArchived, "Archived engagement", nil, nil)
	vm, _ = c.cache.Get(engagementID)
	return vm, nil
}

// Restore un-archives the engagement. A closed status is reset to ACTIVE.
func (c *Coordinator) Restore(ctx context.Context, engagementID string) (vm *models.EngagementViewModel, err error) {
	defer c.observe("restore", &err)
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if !cur.IsArchived && !cur.EngagementStatus.IsClosed() {
		return cur, nil
	}

	fields := db.Record{"isArchived": false}
	if cur.EngagementStatus.IsClosed() {
		fields["engagementStatus"] = string(models.StatusActive)
		fields["closedReason"] = ""
	}

	rec, err := c.guardedUpdate(ctx, db.Engagements, engagementID, cur.UpdatedAt, fields)
	if err != nil {
		return nil, err
	}
	if _, err := c.patch(engagementID, func(vm *models.EngagementViewModel) {
		_ = c.mergeEngagement(vm, rec)
	}); err != nil {
		return nil, err
	}

	c.record(ctx, engagementID, models.ChangeRestored, "Restored engagement", strPtr(string(cur.EngagementStatus)), strPtr(string(models.StatusActive)))
	vm, _ = c.cache.Get(engagementID)
	return vm, nil
}

// UpdateCompetitors replaces the competitor set. other is kept only when
// the OTHER code is present.
func (c *Coordinator) UpdateCompetitors(ctx context.Context, engagementID string, codes []string, other string) (vm *models.EngagementViewModel, err error) {
	defer c.observe("update_competitors", &err)
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}

	codes, other = normalizeCompetitors(codes, other)
	before := competitorSummary(cur.Competitors, cur.OtherCompetitor)
	after := competitorSummary(codes, other)
	if before == after {
		return cur, nil
	}

	rec, err := c.guardedUpdate(ctx, db.Engagements, engagementID, cur.UpdatedAt, db.Record{
		"competitors":     codes,
		"otherCompetitor": other,
	})
	if err != nil {
		return nil, err
	}
	if _, err := c.patch(engagementID, func(vm *models.EngagementViewModel) {
		_ = c.mergeEngagement(vm, rec)
	}); err != nil {
		return nil, err
	}

	c.record(ctx, engagementID, models.ChangeCompetitorsUpdated, "Competitors updated", strPtr(before), strPtr(after))
	vm, _ = c.cache.Get(engagementID)
	return vm, nil
}

func normalizeCompetitors(codes []string, other string) ([]string, string) {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	hasOther := false
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
		if code == models.CompetitorOther {
			hasOther = true
		}
	}
	if !hasOther {
		other = ""
	}
	return out, strings.TrimSpace(other)
}

func competitorSummary(codes []string, other string) string {
	s := strings.Join(codes, ", ")
	if other != "" {
		s += " (" + other + ")"
	}
	return s
}

// AssignSalesRep sets or clears (empty id) the engagement's sales rep.
func (c *Coordinator) AssignSalesRep(ctx context.Context, engagementID, salesRepID string) (vm *models.EngagementViewModel, err error) {
	defer c.observe("assign_sales_rep", &err)
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if cur.SalesRepID == salesRepID {
		return cur, nil
	}
	if salesRepID != "" {
		if err := c.requireSalesRep(ctx, salesRepID); err != nil {
			return nil, err
		}
	}

	rec, err := c.guardedUpdate(ctx, db.Engagements, engagementID, cur.UpdatedAt, db.Record{"salesRepId": salesRepID})
	if err != nil {
		return nil, err
	}
	name := c.salesRepName(salesRepID)
	if _, err := c.patch(engagementID, func(vm *models.EngagementViewModel) {
		_ = c.mergeEngagement(vm, rec)
		vm.SalesRepName = name
	}); err != nil {
		return nil, err
	}

	c.record(ctx, engagementID, models.ChangeSalesRepChanged,
		fmt.Sprintf("Sales rep changed from %q to %q", cur.SalesRepName, name),
		strPtr(cur.SalesRepID), strPtr(salesRepID))
	vm, _ = c.cache.Get(engagementID)
	return vm, nil
}

func (c *Coordinator) requireSalesRep(ctx context.Context, id string) error {
	if c.salesRepName(id) != "" {
		return nil
	}
	rec, err := c.store.Get(ctx, db.SalesReps, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return invalid("unknown sales rep %q", id)
	}
	rep, err := decodeAs[models.SalesRep](rec)
	if err != nil {
		return err
	}
	c.lookupMu.Lock()
	c.salesReps[rep.ID] = rep
	c.lookupMu.Unlock()
	return nil
}

func (c *Coordinator) salesRepName(id string) string {
	c.lookupMu.RLock()
	defer c.lookupMu.RUnlock()
	return c.salesReps[id].Name
}
