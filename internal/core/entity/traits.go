package entity

import (
	"time"

	"stockledger/internal/core/apperror"
)

// SoftDeletable marks a record inactive instead of removing it, so ledger
// history that references it stays resolvable.
type SoftDeletable struct {
	IsDeleted bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// MarkDeleted sets the deletion flag. A second call is a conflict.
func (s *SoftDeletable) MarkDeleted(entity string, now time.Time) error {
	if s.IsDeleted {
		return apperror.NewConflict(entity + " is already canceled")
	}
	at := now.UTC()
	s.IsDeleted = true
	s.DeletedAt = &at
	return nil
}

// Editable tracks whether an aggregate was rewritten after creation.
type Editable struct {
	IsEdited bool       `db:"is_edited" json:"isEdited"`
	EditedAt *time.Time `db:"edited_at" json:"editedAt,omitempty"`
	EditedBy string     `db:"edited_by" json:"editedBy,omitempty"`
}

// MarkEdited records an edit by user.
func (e *Editable) MarkEdited(user string, now time.Time) {
	at := now.UTC()
	e.IsEdited = true
	e.EditedAt = &at
	e.EditedBy = user
}
