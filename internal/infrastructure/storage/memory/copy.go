package memory

import (
	"errors"
	"slices"

	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
)

var errReadOnly = errors.New("write inside read-only transaction")

// Rows handed out or stored are always copies, so callers can mutate what
// they get without touching committed state.

func copyTenant(t *tenant.Tenant) *tenant.Tenant {
	c := *t
	return &c
}

func copyItem(i *inventory.Item) *inventory.Item {
	c := *i
	return &c
}

func copySupplier(s *supplier.Supplier) *supplier.Supplier {
	c := *s
	return &c
}

func copyPurchase(p *purchase.Purchase) *purchase.Purchase {
	c := *p
	c.Items = slices.Clone(p.Items)
	return &c
}

func copySale(s *sale.Sale) *sale.Sale {
	c := *s
	c.Items = slices.Clone(s.Items)
	return &c
}

func copyReturn(r *purchasereturn.Return) *purchasereturn.Return {
	c := *r
	c.Items = slices.Clone(r.Items)
	return &c
}
