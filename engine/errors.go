// ABOUTME: Error taxonomy for engagement mutations
// ABOUTME: Conflicts are typed and recoverable; everything else is a wrapped store or input error
package engine

import (
	"errors"
	"fmt"

	"github.com/harperreed/pursuit/db"
)

var (
	ErrConflict     = errors.New("record changed elsewhere")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictMessage is shown to people when a guarded write is refused.
const ConflictMessage = "this record changed elsewhere, refresh?"

// ConflictError reports a guarded write that was refused. Current holds the
// authoritative record when it still exists.
type ConflictError struct {
	RecordType db.Collection
	ID         string
	WasDeleted bool
	Current    db.Record
}

func (e *ConflictError) Error() string {
	if e.WasDeleted {
		return fmt.Sprintf("%s %s was deleted elsewhere", e.RecordType, e.ID)
	}
	return fmt.Sprintf("%s %s changed elsewhere", e.RecordType, e.ID)
}

// Is matches ErrConflict, and ErrNotFound when the target is gone.
func (e *ConflictError) Is(target error) bool {
	if target == ErrConflict {
		return true
	}
	return e.WasDeleted && target == ErrNotFound
}

// IsConflict reports whether err is a refused guarded write.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsTransient reports whether err is a store or network failure rather than
// a conflict, a missing record, or bad input.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidInput)
}

func isStoreNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
