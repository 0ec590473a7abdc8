// ABOUTME: Optimistic-concurrency guard comparing cached and authoritative revisions
// ABOUTME: Reports modified or deleted records before any update or delete is sent
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/pursuit/db"
)

// ConflictResult is the outcome of a revision check.
type ConflictResult struct {
	Conflict   bool
	WasDeleted bool
	Current    db.Record
}

// Guard reads the authoritative record and compares revisions.
type Guard struct {
	store db.Store
}

func NewGuard(store db.Store) *Guard {
	return &Guard{store: store}
}

// Check reports whether the record in c with id still carries expected.
func (g *Guard) Check(ctx context.Context, c db.Collection, id string, expected time.Time) (ConflictResult, error) {
	current, err := g.store.Get(ctx, c, id)
	if err != nil {
		return ConflictResult{}, fmt.Errorf("check %s %s: %w", c, id, err)
	}
	if current == nil {
		return ConflictResult{Conflict: true, WasDeleted: true}, nil
	}

	rev, err := current.Revision()
	if err != nil {
		return ConflictResult{}, fmt.Errorf("check %s %s: %w", c, id, err)
	}
	if !rev.Equal(expected) {
		return ConflictResult{Conflict: true, Current: current}, nil
	}
	return ConflictResult{Current: current}, nil
}
