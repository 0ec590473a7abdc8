// ABOUTME: Mutation coordinator owning the store, guard, cache, and change recorder
// ABOUTME: Provides bulk load, targeted refresh, and the shared guarded-write skeleton
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// ConflictEvent is delivered to Options.OnConflict when a guarded write is refused.
type ConflictEvent struct {
	RecordType db.Collection
	ID         string
	WasDeleted bool
}

// Options configure a Coordinator. Store is required.
type Options struct {
	Store              db.Store
	Logger             *log.Logger
	Now                func() time.Time
	UserID             string
	StaleThresholdDays int
	ShareLinkTTL       time.Duration
	OnConflict         func(ConflictEvent)
	Metrics            *Metrics
}

// Coordinator runs every engagement mutation for one session user.
type Coordinator struct {
	store      db.Store
	cond       db.ConditionalStore
	guard      *Guard
	cache      *Cache
	changes    *ChangeRecorder
	log        *log.Logger
	now        func() time.Time
	userID     string
	threshold  int
	shareTTL   time.Duration
	onConflict func(ConflictEvent)
	metrics    *Metrics
	validate   *validator.Validate

	lookupMu    sync.RWMutex
	salesReps   map[string]models.SalesRep
	teamMembers map[string]models.TeamMember
	lookupsSet  bool
}

// New builds a coordinator. Conditional writes are used when the store supports them.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StaleThresholdDays <= 0 {
		opts.StaleThresholdDays = DefaultStaleThresholdDays
	}
	if opts.ShareLinkTTL <= 0 {
		opts.ShareLinkTTL = 30 * 24 * time.Hour
	}

	logger := opts.Logger.With("component", "engine")
	c := &Coordinator{
		store:       opts.Store,
		guard:       NewGuard(opts.Store),
		cache:       NewCache(),
		log:         logger,
		now:         opts.Now,
		userID:      opts.UserID,
		threshold:   opts.StaleThresholdDays,
		shareTTL:    opts.ShareLinkTTL,
		onConflict:  opts.OnConflict,
		metrics:     opts.Metrics,
		validate:    newValidator(),
		salesReps:   map[string]models.SalesRep{},
		teamMembers: map[string]models.TeamMember{},
	}
	if cs, ok := opts.Store.(db.ConditionalStore); ok {
		c.cond = cs
	}
	c.changes = NewChangeRecorder(opts.Store, logger, opts.Metrics)
	return c, nil
}

// UserID is the session user attributed on every change.
func (c *Coordinator) UserID() string {
	return c.userID
}

// Store exposes the underlying store.
func (c *Coordinator) Store() db.Store {
	return c.store
}

// Get returns a copy of the cached view-model.
func (c *Coordinator) Get(id string) (*models.EngagementViewModel, bool) {
	return c.cache.Get(id)
}

// List returns every cached view-model.
func (c *Coordinator) List() []*models.EngagementViewModel {
	return c.cache.List()
}

// Load reads every collection and rebuilds the whole cache.
func (c *Coordinator) Load(ctx context.Context) error {
	engagements, err := listAs[models.Engagement](ctx, c.store, db.Engagements, nil)
	if err != nil {
		return err
	}

	var in Collections
	if in.Phases, err = listAs[models.Phase](ctx, c.store, db.Phases, nil); err != nil {
		return err
	}
	if in.Activities, err = listAs[models.Activity](ctx, c.store, db.Activities, nil); err != nil {
		return err
	}
	if in.Comments, err = listAs[models.Comment](ctx, c.store, db.Comments, nil); err != nil {
		return err
	}
	if in.Notes, err = listAs[models.PhaseNote](ctx, c.store, db.PhaseNotes, nil); err != nil {
		return err
	}
	if in.ChangeLogs, err = listAs[models.ChangeLog](ctx, c.store, db.ChangeLogs, nil); err != nil {
		return err
	}
	if in.Owners, err = listAs[models.EngagementOwner](ctx, c.store, db.EngagementOwners, nil); err != nil {
		return err
	}
	if in.Views, err = listAs[models.EngagementView](ctx, c.store, db.EngagementViews, db.Filter{"viewerId": c.userID}); err != nil {
		return err
	}
	if err := c.loadLookups(ctx); err != nil {
		return err
	}
	in.SalesReps, in.TeamMembers = c.lookupSlices()

	ectx := NewContext(in, c.userID, c.now(), c.threshold)
	vms := make([]*models.EngagementViewModel, 0, len(engagements))
	for _, e := range engagements {
		vms = append(vms, Enrich(e, ectx))
	}
	c.cache.Replace(vms)
	c.log.Debug("loaded engagements", "count", len(vms))
	return nil
}

// Refresh rebuilds one engagement from the store. Comments of activities
// already cached are kept rather than refetched. A deleted engagement is
// evicted and reported as ErrNotFound.
func (c *Coordinator) Refresh(ctx context.Context, engagementID string) (*models.EngagementViewModel, error) {
	prev, _ := c.cache.Get(engagementID)
	vm, err := c.fetch(ctx, engagementID, prev)
	if errors.Is(err, ErrNotFound) {
		c.cache.Remove(engagementID)
	}
	if err != nil {
		return nil, err
	}
	c.cache.Put(vm)
	return vm, nil
}

// fetch assembles a view-model from the store without touching the cache.
func (c *Coordinator) fetch(ctx context.Context, engagementID string, prev *models.EngagementViewModel) (*models.EngagementViewModel, error) {
	rec, err := c.store.Get(ctx, db.Engagements, engagementID)
	if err != nil {
		return nil, fmt.Errorf("get engagement %s: %w", engagementID, err)
	}
	if rec == nil {
		return nil, notFound("engagement", engagementID)
	}
	var e models.Engagement
	if err := db.Decode(rec, &e); err != nil {
		return nil, err
	}

	byEngagement := db.Filter{"engagementId": engagementID}
	var in Collections
	if in.Phases, err = listAs[models.Phase](ctx, c.store, db.Phases, byEngagement); err != nil {
		return nil, err
	}
	if in.Activities, err = listAs[models.Activity](ctx, c.store, db.Activities, byEngagement); err != nil {
		return nil, err
	}
	if in.Notes, err = listAs[models.PhaseNote](ctx, c.store, db.PhaseNotes, byEngagement); err != nil {
		return nil, err
	}
	if in.ChangeLogs, err = listAs[models.ChangeLog](ctx, c.store, db.ChangeLogs, byEngagement); err != nil {
		return nil, err
	}
	if in.Owners, err = listAs[models.EngagementOwner](ctx, c.store, db.EngagementOwners, byEngagement); err != nil {
		return nil, err
	}
	if in.Views, err = listAs[models.EngagementView](ctx, c.store, db.EngagementViews, db.Filter{"engagementId": engagementID, "viewerId": c.userID}); err != nil {
		return nil, err
	}

	cached := map[string][]models.Comment{}
	if prev != nil {
		for _, a := range prev.Activities {
			cached[a.ID] = a.Comments
		}
	}
	for _, a := range in.Activities {
		if comments, ok := cached[a.ID]; ok {
			in.Comments = append(in.Comments, comments...)
			continue
		}
		comments, err := listAs[models.Comment](ctx, c.store, db.Comments, db.Filter{"activityId": a.ID})
		if err != nil {
			return nil, err
		}
		in.Comments = append(in.Comments, comments...)
	}

	if err := c.ensureLookups(ctx); err != nil {
		return nil, err
	}
	in.SalesReps, in.TeamMembers = c.lookupSlices()

	return Enrich(e, NewContext(in, c.userID, c.now(), c.threshold)), nil
}

// engagement returns the cached view-model, loading it on a miss.
func (c *Coordinator) engagement(ctx context.Context, id string) (*models.EngagementViewModel, error) {
	if vm, ok := c.cache.Get(id); ok {
		return vm, nil
	}
	return c.Refresh(ctx, id)
}

func (c *Coordinator) loadLookups(ctx context.Context) error {
	reps, err := listAs[models.SalesRep](ctx, c.store, db.SalesReps, nil)
	if err != nil {
		return err
	}
	members, err := listAs[models.TeamMember](ctx, c.store, db.TeamMembers, nil)
	if err != nil {
		return err
	}

	c.lookupMu.Lock()
	defer c.lookupMu.Unlock()
	c.salesReps = make(map[string]models.SalesRep, len(reps))
	for _, r := range reps {
		c.salesReps[r.ID] = r
	}
	c.teamMembers = make(map[string]models.TeamMember, len(members))
	for _, m := range members {
		c.teamMembers[m.ID] = m
	}
	c.lookupsSet = true
	return nil
}

func (c *Coordinator) ensureLookups(ctx context.Context) error {
	c.lookupMu.RLock()
	set := c.lookupsSet
	c.lookupMu.RUnlock()
	if set {
		return nil
	}
	return c.loadLookups(ctx)
}

func (c *Coordinator) lookupSlices() ([]models.SalesRep, []models.TeamMember) {
	c.lookupMu.RLock()
	defer c.lookupMu.RUnlock()
	reps := make([]models.SalesRep, 0, len(c.salesReps))
	for _, r := range c.salesReps {
		reps = append(reps, r)
	}
	members := make([]models.TeamMember, 0, len(c.teamMembers))
	for _, m := range c.teamMembers {
		members = append(members, m)
	}
	return reps, members
}

func (c *Coordinator) teamMemberMap() map[string]models.TeamMember {
	c.lookupMu.RLock()
	defer c.lookupMu.RUnlock()
	out := make(map[string]models.TeamMember, len(c.teamMembers))
	for k, v := range c.teamMembers {
		out[k] = v
	}
	return out
}

// guardedUpdate checks the revision and writes fields. With a conditional
// store the write itself also compares the revision.
func (c *Coordinator) guardedUpdate(ctx context.Context, coll db.Collection, id string, expected time.Time, fields db.Record) (db.Record, error) {
	res, err := c.guard.Check(ctx, coll, id, expected)
	if err != nil {
		return nil, err
	}
	if res.Conflict {
		return nil, c.conflict(coll, id, res)
	}

	var rec db.Record
	if c.cond != nil {
		rec, err = c.cond.UpdateIf(ctx, coll, id, expected, fields)
	} else {
		rec, err = c.store.Update(ctx, coll, id, fields)
	}
	if err != nil {
		return nil, c.writeError(ctx, "update", coll, id, err)
	}
	return rec, nil
}

// guardedDelete is guardedUpdate for deletes.
func (c *Coordinator) guardedDelete(ctx context.Context, coll db.Collection, id string, expected time.Time) error {
	res, err := c.guard.Check(ctx, coll, id, expected)
	if err != nil {
		return err
	}
	if res.Conflict {
		return c.conflict(coll, id, res)
	}
	return c.deleteChecked(ctx, coll, id, expected)
}

func (c *Coordinator) deleteChecked(ctx context.Context, coll db.Collection, id string, expected time.Time) error {
	var err error
	if c.cond != nil {
		err = c.cond.DeleteIf(ctx, coll, id, expected)
	} else {
		err = c.store.Delete(ctx, coll, id)
	}
	if err != nil {
		return c.writeError(ctx, "delete", coll, id, err)
	}
	return nil
}

// writeError turns a lost race at write time into a conflict.
func (c *Coordinator) writeError(ctx context.Context, op string, coll db.Collection, id string, err error) error {
	switch {
	case errors.Is(err, db.ErrRevisionMismatch):
		current, _ := c.store.Get(ctx, coll, id)
		return c.conflict(coll, id, ConflictResult{Conflict: true, WasDeleted: current == nil, Current: current})
	case errors.Is(err, db.ErrNotFound):
		return c.conflict(coll, id, ConflictResult{Conflict: true, WasDeleted: true})
	}
	c.log.Error("store write failed", "op", op, "collection", coll, "id", id, "err", err)
	return fmt.Errorf("%s %s %s: %w", op, coll, id, err)
}

func (c *Coordinator) conflict(coll db.Collection, id string, res ConflictResult) error {
	c.log.Info("conflict", "collection", coll, "id", id, "deleted", res.WasDeleted)
	c.metrics.conflict(string(coll))
	if c.onConflict != nil {
		c.onConflict(ConflictEvent{RecordType: coll, ID: id, WasDeleted: res.WasDeleted})
	}
	return &ConflictError{RecordType: coll, ID: id, WasDeleted: res.WasDeleted, Current: res.Current}
}

// secondaryUpdate writes a derived engagement field without a guard. Failure
// is logged and nil is returned.
func (c *Coordinator) secondaryUpdate(ctx context.Context, engagementID string, fields db.Record) db.Record {
	rec, err := c.store.Update(ctx, db.Engagements, engagementID, fields)
	if err != nil {
		c.log.Warn("secondary engagement write failed", "engagement_id", engagementID, "err", err)
		return nil
	}
	return rec
}

// mergeEngagement copies a stored engagement record into vm. The cached
// current phase and lastActivity stay derived from the cached children, so a
// stale stored copy of either never leaks back into the view-model.
func (c *Coordinator) mergeEngagement(vm *models.EngagementViewModel, rec db.Record) error {
	if rec == nil {
		return nil
	}
	var e models.Engagement
	if err := db.Decode(rec, &e); err != nil {
		return err
	}
	vm.Engagement = e
	vm.StoredPhase = e.CurrentPhase
	vm.CurrentPhase = DerivePhase(e.CurrentPhase, vm.Phases)
	recomputeActivity(vm, c.now(), c.threshold)
	return nil
}

// record appends a change log and splices it into the cached engagement.
func (c *Coordinator) record(ctx context.Context, engagementID string, ct models.ChangeType, desc string, prev, next *string) {
	entry := c.changes.Record(ctx, models.ChangeLog{
		EngagementID:  engagementID,
		UserID:        c.userID,
		ChangeType:    ct,
		Description:   desc,
		PreviousValue: prev,
		NewValue:      next,
	})
	if entry == nil {
		return
	}
	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		vm.ChangeLogs = append([]models.ChangeLog{*entry}, vm.ChangeLogs...)
		vm.UnreadChanges = UnreadChanges(vm.ChangeLogs, c.userID, vm.LastView)
	})
}

func (c *Coordinator) observe(op string, err *error) {
	c.metrics.observeMutation(op, *err)
}

// patch applies fn to the cached view-model, failing if it was evicted.
func (c *Coordinator) patch(id string, fn func(vm *models.EngagementViewModel)) (*models.EngagementViewModel, error) {
	vm, ok := c.cache.Patch(id, fn)
	if !ok {
		return nil, notFound("engagement", id)
	}
	return vm, nil
}

func listAs[T any](ctx context.Context, store db.Store, coll db.Collection, filter db.Filter) ([]T, error) {
	records, err := store.List(ctx, coll, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", coll, err)
	}
	return db.DecodeAll[T](records)
}

func decodeAs[T any](rec db.Record) (T, error) {
	var v T
	err := db.Decode(rec, &v)
	return v, err
}

func strPtr(s string) *string {
	return &s
}
