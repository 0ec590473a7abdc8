// ABOUTME: Phase note mutations with notes-by-phase and total-count recompute
// ABOUTME: Notes are keyed by engagement and phase type
package engine

import (
	"context"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
)

// AddNote attaches a note to one phase of the engagement.
func (c *Coordinator) AddNote(ctx context.Context, engagementID string, phaseType models.PhaseType, text string) (note *models.PhaseNote, err error) {
	defer c.observe("add_note", &err)
	if !phaseType.IsValid() {
		return nil, invalid("unknown phase %q", phaseType)
	}
	if err := c.checkText(text); err != nil {
		return nil, err
	}
	if _, err := c.engagement(ctx, engagementID); err != nil {
		return nil, err
	}

	fields, err := db.Encode(models.PhaseNote{EngagementID: engagementID, PhaseType: phaseType, Text: text, AuthorID: c.userID})
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Create(ctx, db.PhaseNotes, fields)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	created, err := decodeAs[models.PhaseNote](rec)
	if err != nil {
		return nil, err
	}

	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		if vm.NotesByPhase == nil {
			vm.NotesByPhase = map[models.PhaseType][]models.PhaseNote{}
		}
		vm.NotesByPhase[phaseType] = append(vm.NotesByPhase[phaseType], created)
		recomputeNotes(vm)
	})
	c.record(ctx, engagementID, models.ChangeNoteAdded, fmt.Sprintf("Added %s note", phaseType), nil, strPtr(text))
	return &created, nil
}

// EditNote replaces a note's text.
func (c *Coordinator) EditNote(ctx context.Context, engagementID, noteID, text string) (note *models.PhaseNote, err error) {
	defer c.observe("edit_note", &err)
	if err := c.checkText(text); err != nil {
		return nil, err
	}
	before, err := c.cachedNote(ctx, engagementID, noteID)
	if err != nil {
		return nil, err
	}
	if before.Text == text {
		return &before, nil
	}

	rec, err := c.guardedUpdate(ctx, db.PhaseNotes, noteID, before.UpdatedAt, db.Record{"text": text})
	if err != nil {
		return nil, err
	}
	edited, err := decodeAs[models.PhaseNote](rec)
	if err != nil {
		return nil, err
	}

	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		list := vm.NotesByPhase[edited.PhaseType]
		for i := range list {
			if list[i].ID == noteID {
				list[i] = edited
			}
		}
		recomputeNotes(vm)
	})
	c.record(ctx, engagementID, models.ChangeNoteEdited, fmt.Sprintf("Edited %s note", edited.PhaseType), strPtr(before.Text), strPtr(text))
	return &edited, nil
}

// DeleteNote removes a note.
func (c *Coordinator) DeleteNote(ctx context.Context, engagementID, noteID string) (err error) {
	defer c.observe("delete_note", &err)
	before, err := c.cachedNote(ctx, engagementID, noteID)
	if err != nil {
		return err
	}
	if err := c.guardedDelete(ctx, db.PhaseNotes, noteID, before.UpdatedAt); err != nil {
		return err
	}

	c.cache.Patch(engagementID, func(vm *models.EngagementViewModel) {
		list := vm.NotesByPhase[before.PhaseType]
		out := list[:0]
		for _, n := range list {
			if n.ID != noteID {
				out = append(out, n)
			}
		}
		vm.NotesByPhase[before.PhaseType] = out
		recomputeNotes(vm)
	})
	c.record(ctx, engagementID, models.ChangeNoteDeleted, fmt.Sprintf("Deleted %s note", before.PhaseType), strPtr(before.Text), nil)
	return nil
}

func (c *Coordinator) cachedNote(ctx context.Context, engagementID, noteID string) (models.PhaseNote, error) {
	cur, err := c.engagement(ctx, engagementID)
	if err != nil {
		return models.PhaseNote{}, err
	}
	for _, list := range cur.NotesByPhase {
		for _, n := range list {
			if n.ID == noteID {
				return n, nil
			}
		}
	}
	return models.PhaseNote{}, notFound("note", noteID)
}
