// Package supplier provides the supplier catalog.
package supplier

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

// Supplier is a vendor purchases are recorded against.
type Supplier struct {
	entity.TenantEntity

	Name    string `db:"name" json:"name"`
	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
}

// New creates a supplier.
func New(tenantID id.ID, name, phone, address string, now time.Time) *Supplier {
	return &Supplier{
		TenantEntity: entity.NewTenantEntity(tenantID, now),
		Name:         strings.TrimSpace(name),
		Phone:        strings.TrimSpace(phone),
		Address:      strings.TrimSpace(address),
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(_ context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("invalid supplier").WithField("name", "required")
	}
	return nil
}
