// Package audit records who canceled or rewrote which document, with the
// document state before and after the change.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
)

// Action is the audited operation.
type Action string

const (
	ActionCancel   Action = "cancel"
	ActionEdit     Action = "edit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
)

// Entry is one audit trail row.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	TenantID   id.ID           `db:"tenant_id" json:"-"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	Action     Action          `db:"action" json:"action"`
	UserID     string          `db:"user_id" json:"userId"`
	Changes    json.RawMessage `db:"changes" json:"changes"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Repository stores audit entries of one tenant.
type Repository interface {
	Record(ctx context.Context, e Entry) error

	// History returns the newest limit entries for an entity, newest first.
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// NewEntry snapshots before and after as {"before":...,"after":...}.
// The user is taken from ctx.
func NewEntry(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, action Action, before, after any, now time.Time) (Entry, error) {
	changes, err := json.Marshal(map[string]any{"before": before, "after": after})
	if err != nil {
		return Entry{}, fmt.Errorf("marshal audit changes: %w", err)
	}
	return Entry{
		ID:         id.New(),
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		Changes:    changes,
		CreatedAt:  now.UTC(),
	}, nil
}
