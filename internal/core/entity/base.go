// Package entity holds the building blocks shared by tenant-owned aggregates.
package entity

import (
	"context"
	"time"

	"stockledger/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants only, without touching the store.
type Validatable interface {
	Validate(ctx context.Context) error
}

// TenantEntity contains the fields every tenant-owned row carries.
type TenantEntity struct {
	ID        id.ID     `db:"id" json:"id"`
	TenantID  id.ID     `db:"tenant_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTenantEntity creates a TenantEntity with generated ID and timestamps.
func NewTenantEntity(tenantID id.ID, now time.Time) TenantEntity {
	now = now.UTC()
	return TenantEntity{
		ID:        id.New(),
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *TenantEntity) Touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

// Document is a tenant entity recorded by a user under an invoice number.
type Document struct {
	TenantEntity

	Invoice    string `db:"invoice" json:"invoice"`
	RecordedBy string `db:"recorded_by" json:"recordedBy,omitempty"`

	SoftDeletable
	Editable
}

// NewDocument creates a Document.
func NewDocument(tenantID id.ID, recordedBy string, now time.Time) Document {
	return Document{
		TenantEntity: NewTenantEntity(tenantID, now),
		RecordedBy:   recordedBy,
	}
}
