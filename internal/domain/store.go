// Package domain defines the tenant-scoped storage capability the services run against.
package domain

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/registers/ledger"
)

// Store is the root storage handle. Business data is only reachable through
// Tenant, so a repository can never read or write another tenant's rows.
type Store interface {
	// Tenant returns a handle bound to tenantID. It does not check that the tenant exists.
	Tenant(tenantID id.ID) TenantStore

	CreateTenant(ctx context.Context, t *tenant.Tenant) error

	// InvoiceCounter is the (tenant, year) counter behind invoice numbers.
	InvoiceCounter() numerator.Counter
}

// TenantStore is the set of repositories of a single tenant. Every lookup by id
// answers NOT_FOUND for rows owned by another tenant.
type TenantStore interface {
	TenantID() id.ID

	// Profile returns the tenant row, or NOT_FOUND.
	Profile(ctx context.Context) (*tenant.Tenant, error)

	Inventory() inventory.Repository
	Suppliers() supplier.Repository
	Ledger() ledger.Repository
	Purchases() purchase.Repository
	Sales() sale.Repository
	Returns() purchasereturn.Repository
	Audit() audit.Repository
}
