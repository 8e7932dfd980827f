// Package tenant describes the tenant a request acts for.
// All tenants share one database; isolation is by tenant_id on every row.
package tenant

import (
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Status represents tenant lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// DefaultInvoicePrefix is used when a tenant is created without one.
const DefaultInvoicePrefix = "INV"

// Tenant is an isolated business unit.
type Tenant struct {
	ID            id.ID     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	InvoicePrefix string    `db:"invoice_prefix" json:"invoicePrefix"`
	Status        Status    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// IsActive returns true if tenant can accept requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// CreateInput contains data for creating a new tenant.
type CreateInput struct {
	Name          string
	InvoicePrefix string
}

// Validate normalizes and checks the input.
func (i *CreateInput) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return apperror.NewValidation("tenant name is required").WithField("name", "required")
	}
	i.InvoicePrefix = strings.ToUpper(strings.TrimSpace(i.InvoicePrefix))
	if i.InvoicePrefix == "" {
		i.InvoicePrefix = DefaultInvoicePrefix
	}
	if len(i.InvoicePrefix) > 10 || strings.ContainsAny(i.InvoicePrefix, " -") {
		return apperror.NewValidation("invalid invoice prefix").
			WithField("invoicePrefix", "up to 10 characters, no spaces or dashes")
	}
	return nil
}

// New builds an active tenant from validated input.
func New(in CreateInput) *Tenant {
	return &Tenant{
		ID:            id.New(),
		Name:          in.Name,
		InvoicePrefix: in.InvoicePrefix,
		Status:        StatusActive,
		CreatedAt:     time.Now().UTC(),
	}
}
